// Package exposition renders metric families in the Prometheus text format
// (version 0.0.4) and serves them over HTTP.
package exposition

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/health-monitor/pkg/metrics"
)

// ContentType is the media type of the text exposition format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// SerializationError is reported for a series that cannot be written. Only that
// series is skipped; the rest of the family is still rendered.
type SerializationError struct {
	Metric string
	Labels metrics.Labels
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot serialize %s%s: %s", e.Metric, labelString(e.Labels), e.Reason)
}

// Encode writes families to w in order. Each family gets one HELP and one TYPE line.
// Series that fail validation are skipped and returned as *SerializationError; a
// family left without any valid series is omitted, except a family that had no
// series to begin with, which is written as a bare header. The second return value
// is the first write error of w.
func Encode(w io.Writer, families []metrics.Family) ([]error, error) {
	var skipped []error
	var body bytes.Buffer
	for _, fam := range families {
		body.Reset()
		for _, s := range fam.Samples {
			if err := writeSeries(&body, fam, s); err != nil {
				skipped = append(skipped, err)
			}
		}
		if body.Len() == 0 && len(fam.Samples) > 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n",
			fam.Name, escapeHelp(fam.Help), fam.Name, fam.Type); err != nil {
			return skipped, err
		}
		if _, err := w.Write(body.Bytes()); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// writeSeries renders every line of one series into a scratch buffer first so a
// validation failure never leaves a half-written series behind.
func writeSeries(out *bytes.Buffer, fam metrics.Family, s metrics.Sample) error {
	fail := func(reason string) error {
		return &SerializationError{Metric: fam.Name, Labels: s.Labels, Reason: reason}
	}
	// le 和 quantile 由编码器自己追加，用户标签不能占用
	var reserved string
	switch fam.Type {
	case metrics.HistogramType:
		reserved = model.BucketLabel
	case metrics.SummaryType:
		reserved = model.QuantileLabel
	}
	seen := make(map[string]struct{}, len(s.Labels))
	for _, lp := range s.Labels {
		if !model.LabelNameRE.MatchString(lp.Name) || lp.Name == model.MetricNameLabel {
			return fail(fmt.Sprintf("invalid label name %q", lp.Name))
		}
		if lp.Name == reserved {
			return fail(fmt.Sprintf("label name %q is reserved for %s", lp.Name, fam.Type))
		}
		if _, dup := seen[lp.Name]; dup {
			return fail(fmt.Sprintf("duplicate label name %q", lp.Name))
		}
		seen[lp.Name] = struct{}{}
		if !model.LabelValue(lp.Value).IsValid() {
			return fail(fmt.Sprintf("label %s has a non UTF-8 value", lp.Name))
		}
	}

	var buf bytes.Buffer
	switch fam.Type {
	case metrics.CounterType, metrics.GaugeType:
		writeSample(&buf, fam.Name, s.Labels, s.Value)

	case metrics.HistogramType:
		h := s.Histogram
		if h == nil {
			return fail("histogram sample without histogram value")
		}
		if err := checkHistogram(h); err != "" {
			return fail(err)
		}
		for _, b := range h.Buckets {
			writeSample(&buf, fam.Name+"_bucket", s.Labels.With("le", formatFloat(b.UpperBound)), float64(b.CumulativeCount))
		}
		writeSample(&buf, fam.Name+"_sum", s.Labels, h.Sum)
		writeSample(&buf, fam.Name+"_count", s.Labels, float64(h.Count))

	case metrics.SummaryType:
		sv := s.Summary
		if sv == nil {
			return fail("summary sample without summary value")
		}
		for _, q := range sv.Quantiles {
			writeSample(&buf, fam.Name, s.Labels.With("quantile", formatFloat(q.Quantile)), q.Value)
		}
		writeSample(&buf, fam.Name+"_sum", s.Labels, sv.Sum)
		writeSample(&buf, fam.Name+"_count", s.Labels, float64(sv.Count))

	default:
		return fail(fmt.Sprintf("unknown metric type %d", fam.Type))
	}
	out.Write(buf.Bytes())
	return nil
}

// checkHistogram 校验桶为累计值且最后一个桶是 +Inf 并等于总数
func checkHistogram(h *metrics.HistogramValue) string {
	n := len(h.Buckets)
	if n == 0 {
		return "histogram without buckets"
	}
	for i := 1; i < n; i++ {
		if h.Buckets[i].UpperBound <= h.Buckets[i-1].UpperBound {
			return "bucket bounds are not increasing"
		}
		if h.Buckets[i].CumulativeCount < h.Buckets[i-1].CumulativeCount {
			return "bucket counts are not cumulative"
		}
	}
	last := h.Buckets[n-1]
	if !math.IsInf(last.UpperBound, +1) {
		return "last bucket is not +Inf"
	}
	if last.CumulativeCount != h.Count {
		return "+Inf bucket does not match count"
	}
	return ""
}

func writeSample(buf *bytes.Buffer, name string, labels metrics.Labels, v float64) {
	buf.WriteString(name)
	buf.WriteString(labelString(labels))
	buf.WriteByte(' ')
	buf.WriteString(formatFloat(v))
	buf.WriteByte('\n')
}

func labelString(labels metrics.Labels) string {
	if len(labels) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, lp := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(lp.Name)
		b.WriteString(`="`)
		b.WriteString(labelValueEscaper.Replace(lp.Value))
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}

var (
	labelValueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	helpEscaper       = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
)

func escapeHelp(s string) string { return helpEscaper.Replace(s) }

// formatFloat 输出最短的十进制表示，特殊值使用 +Inf/-Inf/NaN
func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, +1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
