package registry

import (
	"fmt"
	"math"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/health-monitor/pkg/metrics"
)

// promCollector adapts a client_golang collector. It owns a private
// prometheus.Registry so client_golang's own consistency checks still apply, and
// converts the gathered DTOs into metric families on every Collect.
type promCollector struct {
	name  string
	reg   *prometheus.Registry
	descs []metrics.Desc
}

// FromPrometheus wraps c so it can be registered in a Registry. When descs is empty
// the families are discovered by gathering c once; pass descs explicitly for vectors
// that have no children yet.
func FromPrometheus(name string, c prometheus.Collector, descs ...metrics.Desc) (metrics.Collector, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c); err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	b := &promCollector{name: name, reg: reg, descs: descs}
	if len(descs) > 0 {
		return b, nil
	}

	mfs, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather %s: %w", name, err)
	}
	for _, mf := range mfs {
		t, ok := convertType(mf.GetType())
		if !ok {
			continue
		}
		b.descs = append(b.descs, metrics.Desc{Name: mf.GetName(), Help: mf.GetHelp(), Type: t})
	}
	return b, nil
}

func (b *promCollector) Name() string { return b.name }

func (b *promCollector) Describe() []metrics.Desc { return b.descs }

func (b *promCollector) Collect() ([]metrics.Family, error) {
	mfs, err := b.reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make([]metrics.Family, 0, len(mfs))
	for _, mf := range mfs {
		t, ok := convertType(mf.GetType())
		if !ok {
			continue
		}
		fam := metrics.Family{Desc: metrics.Desc{Name: mf.GetName(), Help: mf.GetHelp(), Type: t}}
		for _, m := range mf.GetMetric() {
			fam.Samples = append(fam.Samples, convertMetric(t, m))
		}
		out = append(out, fam)
	}
	return out, nil
}

func convertType(t dto.MetricType) (metrics.Type, bool) {
	switch t {
	case dto.MetricType_COUNTER:
		return metrics.CounterType, true
	case dto.MetricType_GAUGE:
		return metrics.GaugeType, true
	case dto.MetricType_HISTOGRAM:
		return metrics.HistogramType, true
	case dto.MetricType_SUMMARY:
		return metrics.SummaryType, true
	default:
		return 0, false
	}
}

func convertMetric(t metrics.Type, m *dto.Metric) metrics.Sample {
	s := metrics.Sample{}
	for _, lp := range m.GetLabel() {
		s.Labels = append(s.Labels, metrics.LabelPair{Name: lp.GetName(), Value: lp.GetValue()})
	}
	switch t {
	case metrics.CounterType:
		s.Value = m.GetCounter().GetValue()
	case metrics.GaugeType:
		s.Value = m.GetGauge().GetValue()
	case metrics.HistogramType:
		h := m.GetHistogram()
		hv := &metrics.HistogramValue{Count: h.GetSampleCount(), Sum: h.GetSampleSum()}
		for _, b := range h.GetBucket() {
			hv.Buckets = append(hv.Buckets, metrics.Bucket{UpperBound: b.GetUpperBound(), CumulativeCount: b.GetCumulativeCount()})
		}
		if n := len(hv.Buckets); n == 0 || !math.IsInf(hv.Buckets[n-1].UpperBound, +1) {
			hv.Buckets = append(hv.Buckets, metrics.Bucket{UpperBound: math.Inf(+1), CumulativeCount: hv.Count})
		}
		s.Histogram = hv
	case metrics.SummaryType:
		sm := m.GetSummary()
		sv := &metrics.SummaryValue{Count: sm.GetSampleCount(), Sum: sm.GetSampleSum()}
		for _, q := range sm.GetQuantile() {
			sv.Quantiles = append(sv.Quantiles, metrics.Quantile{Quantile: q.GetQuantile(), Value: q.GetValue()})
		}
		s.Summary = sv
	}
	return s
}
