package metrics

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// DefSummaryWindow is the number of recent observations quantiles are computed over.
const DefSummaryWindow = 500

// SummaryOpts 摘要参数。Objectives 为空时只输出 _sum 和 _count
type SummaryOpts struct {
	Name       string
	Help       string
	Objectives []float64
	Window     int
}

// Summary tracks a running count and sum and, when objectives are configured,
// quantiles over the most recent Window observations.
type Summary struct {
	desc       Desc
	labels     Labels
	objectives []float64

	mu     sync.Mutex
	window []float64
	next   int
	filled bool
	count  uint64
	sum    float64
}

// NewSummary creates a summary that is not yet registered anywhere. It panics if an
// objective lies outside [0, 1].
func NewSummary(opts SummaryOpts) *Summary {
	for _, q := range opts.Objectives {
		if q < 0 || q > 1 || math.IsNaN(q) {
			panic(fmt.Errorf("summary %s: objective %v outside [0, 1]", opts.Name, q))
		}
	}
	objectives := make([]float64, len(opts.Objectives))
	copy(objectives, opts.Objectives)
	sort.Float64s(objectives)

	size := opts.Window
	if size <= 0 {
		size = DefSummaryWindow
	}
	s := &Summary{
		desc:       Desc{Name: opts.Name, Help: opts.Help, Type: SummaryType},
		objectives: objectives,
	}
	if len(objectives) > 0 {
		s.window = make([]float64, size)
	}
	return s
}

// Observe records one value.
func (s *Summary) Observe(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	s.sum += v
	if len(s.window) == 0 {
		return
	}
	s.window[s.next] = v
	s.next++
	if s.next == len(s.window) {
		s.next = 0
		s.filled = true
	}
}

func (s *Summary) read() *SummaryValue {
	s.mu.Lock()
	n := s.next
	if s.filled {
		n = len(s.window)
	}
	recent := make([]float64, n)
	copy(recent, s.window[:n])
	val := &SummaryValue{Count: s.count, Sum: s.sum}
	s.mu.Unlock()

	if len(s.objectives) == 0 {
		return val
	}
	sort.Float64s(recent)
	val.Quantiles = make([]Quantile, 0, len(s.objectives))
	for _, q := range s.objectives {
		val.Quantiles = append(val.Quantiles, Quantile{Quantile: q, Value: rank(recent, q)})
	}
	return val
}

// rank picks the nearest-rank quantile of sorted values; NaN when empty.
func rank(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	idx := int(math.Ceil(q*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func (s *Summary) sample() Sample {
	return Sample{Labels: s.labels, Summary: s.read()}
}

// Describe implements Collector.
func (s *Summary) Describe() []Desc { return []Desc{s.desc} }

// Collect implements Collector.
func (s *Summary) Collect() ([]Family, error) {
	return []Family{{Desc: s.desc, Samples: []Sample{s.sample()}}}, nil
}
