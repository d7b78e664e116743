package metrics

import (
	"errors"
	"math"
	"sync/atomic"
)

// CounterOpts 计数器参数
type CounterOpts struct {
	Name string
	Help string
}

// Counter is a monotonically non-decreasing value.
//
// Integral increments go through valInt with a single atomic add, everything else
// through a CAS loop on the float64 bits in valBits. Both are summed on read.
type Counter struct {
	valBits uint64
	valInt  uint64

	desc   Desc
	labels Labels
}

// NewCounter creates a counter that is not yet registered anywhere.
func NewCounter(opts CounterOpts) *Counter {
	return &Counter{desc: Desc{Name: opts.Name, Help: opts.Help, Type: CounterType}}
}

// Inc adds one.
func (c *Counter) Inc() {
	atomic.AddUint64(&c.valInt, 1)
}

// Add adds v, which must not be negative.
func (c *Counter) Add(v float64) {
	if v < 0 {
		panic(errors.New("counter cannot decrease in value"))
	}
	ival := uint64(v)
	if float64(ival) == v {
		atomic.AddUint64(&c.valInt, ival)
		return
	}
	for {
		oldBits := atomic.LoadUint64(&c.valBits)
		newBits := math.Float64bits(math.Float64frombits(oldBits) + v)
		if atomic.CompareAndSwapUint64(&c.valBits, oldBits, newBits) {
			return
		}
	}
}

// Value returns the current count.
func (c *Counter) Value() float64 {
	fval := math.Float64frombits(atomic.LoadUint64(&c.valBits))
	ival := atomic.LoadUint64(&c.valInt)
	return fval + float64(ival)
}

func (c *Counter) sample() Sample {
	return Sample{Labels: c.labels, Value: c.Value()}
}

// Describe implements Collector.
func (c *Counter) Describe() []Desc { return []Desc{c.desc} }

// Collect implements Collector.
func (c *Counter) Collect() ([]Family, error) {
	return []Family{{Desc: c.desc, Samples: []Sample{c.sample()}}}, nil
}

// CounterVec partitions a counter by label values.
type CounterVec struct {
	*metricVec[*Counter]
}

// NewCounterVec creates a counter vector with the given label names.
func NewCounterVec(opts CounterOpts, labelNames []string) *CounterVec {
	desc := Desc{Name: opts.Name, Help: opts.Help, Type: CounterType}
	return &CounterVec{newMetricVec(desc, labelNames, func(l Labels) *Counter {
		return &Counter{desc: desc, labels: l}
	})}
}
