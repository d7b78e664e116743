package metrics

import (
	"fmt"
	"math"
	"sync"
)

// DefBuckets 默认分桶 [0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10] 秒
var DefBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// ExponentialBuckets returns count buckets starting at start, each factor times the
// previous one.
func ExponentialBuckets(start, factor float64, count int) []float64 {
	if count < 1 {
		panic("ExponentialBuckets needs a positive count")
	}
	if start <= 0 {
		panic("ExponentialBuckets needs a positive start value")
	}
	if factor <= 1 {
		panic("ExponentialBuckets needs a factor greater than 1")
	}
	buckets := make([]float64, count)
	for i := range buckets {
		buckets[i] = start
		start *= factor
	}
	return buckets
}

// HistogramOpts 直方图参数，Buckets 为空时使用 DefBuckets
type HistogramOpts struct {
	Name    string
	Help    string
	Buckets []float64
}

// Histogram counts observations into buckets with fixed upper bounds plus an
// implicit +Inf bucket.
type Histogram struct {
	desc   Desc
	labels Labels
	bounds []float64

	mu     sync.Mutex
	counts []uint64 // per bucket, not cumulative; last entry is +Inf
	count  uint64
	sum    float64
}

// NewHistogram creates a histogram that is not yet registered anywhere. It panics if
// the buckets are not strictly increasing.
func NewHistogram(opts HistogramOpts) *Histogram {
	desc := Desc{Name: opts.Name, Help: opts.Help, Type: HistogramType}
	return newHistogram(desc, nil, checkBuckets(opts.Name, opts.Buckets))
}

func newHistogram(desc Desc, labels Labels, bounds []float64) *Histogram {
	return &Histogram{
		desc:   desc,
		labels: labels,
		bounds: bounds,
		counts: make([]uint64, len(bounds)+1),
	}
}

func checkBuckets(name string, buckets []float64) []float64 {
	if len(buckets) == 0 {
		buckets = DefBuckets
	}
	bounds := make([]float64, 0, len(buckets))
	for i, b := range buckets {
		if math.IsInf(b, +1) && i == len(buckets)-1 {
			break
		}
		if i > 0 && b <= buckets[i-1] {
			panic(fmt.Errorf("histogram %s: buckets must be in strictly increasing order", name))
		}
		bounds = append(bounds, b)
	}
	return bounds
}

// Observe records one value.
func (h *Histogram) Observe(v float64) {
	i := len(h.bounds)
	for j, b := range h.bounds {
		if v <= b {
			i = j
			break
		}
	}
	h.mu.Lock()
	h.counts[i]++
	h.count++
	h.sum += v
	h.mu.Unlock()
}

func (h *Histogram) read() *HistogramValue {
	h.mu.Lock()
	defer h.mu.Unlock()
	buckets := make([]Bucket, 0, len(h.counts))
	var cumulative uint64
	for i, n := range h.counts {
		cumulative += n
		bound := math.Inf(+1)
		if i < len(h.bounds) {
			bound = h.bounds[i]
		}
		buckets = append(buckets, Bucket{UpperBound: bound, CumulativeCount: cumulative})
	}
	return &HistogramValue{Buckets: buckets, Count: h.count, Sum: h.sum}
}

func (h *Histogram) sample() Sample {
	return Sample{Labels: h.labels, Histogram: h.read()}
}

// Describe implements Collector.
func (h *Histogram) Describe() []Desc { return []Desc{h.desc} }

// Collect implements Collector.
func (h *Histogram) Collect() ([]Family, error) {
	return []Family{{Desc: h.desc, Samples: []Sample{h.sample()}}}, nil
}

// HistogramVec partitions a histogram by label values.
type HistogramVec struct {
	*metricVec[*Histogram]
}

// NewHistogramVec creates a histogram vector with the given label names. It panics if
// a label name is "le", which the bucket lines use.
func NewHistogramVec(opts HistogramOpts, labelNames []string) *HistogramVec {
	for _, ln := range labelNames {
		if ln == "le" {
			panic(fmt.Errorf("histogram %s: \"le\" is not allowed as a label name", opts.Name))
		}
	}
	desc := Desc{Name: opts.Name, Help: opts.Help, Type: HistogramType}
	bounds := checkBuckets(opts.Name, opts.Buckets)
	return &HistogramVec{newMetricVec(desc, labelNames, func(l Labels) *Histogram {
		return newHistogram(desc, l, bounds)
	})}
}
