// Package metrics holds the metric data model (descriptors, label sets, samples and
// families) and the instruments that produce them: counters, gauges, histograms and
// summaries, plain or partitioned by labels.
//
// Every instrument is a Collector: Describe reports the families it will emit and
// Collect returns a fresh, immutable view of its current state. Collect never changes
// an instrument's value.
package metrics

import (
	"strings"
)

// Type 指标类型
type Type int

const (
	CounterType Type = iota
	GaugeType
	HistogramType
	SummaryType
)

// String returns the lower-case name used on the # TYPE line.
func (t Type) String() string {
	switch t {
	case CounterType:
		return "counter"
	case GaugeType:
		return "gauge"
	case HistogramType:
		return "histogram"
	case SummaryType:
		return "summary"
	default:
		return "untyped"
	}
}

// Desc 指标描述（名称、帮助信息、类型）
type Desc struct {
	Name string
	Help string
	Type Type
}

// LabelPair is a single label dimension.
type LabelPair struct {
	Name  string
	Value string
}

// Labels is an ordered label set attached to one sample.
type Labels []LabelPair

// Key returns a string that identifies the label set within one family.
func (l Labels) Key() string {
	var b strings.Builder
	for _, lp := range l {
		b.WriteString(lp.Name)
		b.WriteByte(0xff)
		b.WriteString(lp.Value)
		b.WriteByte(0xfe)
	}
	return b.String()
}

// With returns a copy of l with one extra pair appended.
func (l Labels) With(name, value string) Labels {
	out := make(Labels, 0, len(l)+1)
	out = append(out, l...)
	return append(out, LabelPair{Name: name, Value: value})
}

// Bucket is one cumulative histogram bucket.
type Bucket struct {
	UpperBound      float64
	CumulativeCount uint64
}

// HistogramValue is a histogram reading. Buckets are cumulative and the last bucket
// has an upper bound of +Inf.
type HistogramValue struct {
	Buckets []Bucket
	Count   uint64
	Sum     float64
}

// Quantile is one precomputed summary quantile.
type Quantile struct {
	Quantile float64
	Value    float64
}

// SummaryValue is a summary reading.
type SummaryValue struct {
	Quantiles []Quantile
	Count     uint64
	Sum       float64
}

// Sample is one series of a family. Counters and gauges use Value, histograms use
// Histogram and summaries use Summary.
type Sample struct {
	Labels    Labels
	Value     float64
	Histogram *HistogramValue
	Summary   *SummaryValue
}

// Family groups every sample of one metric name.
type Family struct {
	Desc
	Samples []Sample
}

// Collector produces metric families on demand. Collect may be called any number of
// times and must reflect the current state on every call.
type Collector interface {
	Describe() []Desc
	Collect() ([]Family, error)
}

func labelsFromValues(names, values []string) Labels {
	if len(names) == 0 {
		return nil
	}
	out := make(Labels, len(names))
	for i := range names {
		out[i] = LabelPair{Name: names[i], Value: values[i]}
	}
	return out
}
