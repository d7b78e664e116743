package metrics

import (
	"math"
	"sync/atomic"
)

// GaugeOpts 仪表参数
type GaugeOpts struct {
	Name string
	Help string
}

// Gauge is a value that can go up and down.
type Gauge struct {
	valBits uint64

	desc   Desc
	labels Labels
}

// NewGauge creates a gauge that is not yet registered anywhere.
func NewGauge(opts GaugeOpts) *Gauge {
	return &Gauge{desc: Desc{Name: opts.Name, Help: opts.Help, Type: GaugeType}}
}

// Set replaces the value.
func (g *Gauge) Set(v float64) {
	atomic.StoreUint64(&g.valBits, math.Float64bits(v))
}

func (g *Gauge) Inc() { g.Add(1) }
func (g *Gauge) Dec() { g.Add(-1) }

// Sub subtracts v.
func (g *Gauge) Sub(v float64) { g.Add(-v) }

// Add adds v, which may be negative.
func (g *Gauge) Add(v float64) {
	for {
		oldBits := atomic.LoadUint64(&g.valBits)
		newBits := math.Float64bits(math.Float64frombits(oldBits) + v)
		if atomic.CompareAndSwapUint64(&g.valBits, oldBits, newBits) {
			return
		}
	}
}

// Value returns the current value.
func (g *Gauge) Value() float64 {
	return math.Float64frombits(atomic.LoadUint64(&g.valBits))
}

func (g *Gauge) sample() Sample {
	return Sample{Labels: g.labels, Value: g.Value()}
}

// Describe implements Collector.
func (g *Gauge) Describe() []Desc { return []Desc{g.desc} }

// Collect implements Collector.
func (g *Gauge) Collect() ([]Family, error) {
	return []Family{{Desc: g.desc, Samples: []Sample{g.sample()}}}, nil
}

// GaugeVec partitions a gauge by label values.
type GaugeVec struct {
	*metricVec[*Gauge]
}

// NewGaugeVec creates a gauge vector with the given label names.
func NewGaugeVec(opts GaugeOpts, labelNames []string) *GaugeVec {
	desc := Desc{Name: opts.Name, Help: opts.Help, Type: GaugeType}
	return &GaugeVec{newMetricVec(desc, labelNames, func(l Labels) *Gauge {
		return &Gauge{desc: desc, labels: l}
	})}
}
