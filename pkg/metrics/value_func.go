package metrics

// GaugeFunc reads its value from a function every time it is collected.
type GaugeFunc struct {
	desc Desc
	fn   func() float64
}

// NewGaugeFunc creates a gauge backed by fn. fn must be safe for concurrent use.
func NewGaugeFunc(opts GaugeOpts, fn func() float64) *GaugeFunc {
	return &GaugeFunc{desc: Desc{Name: opts.Name, Help: opts.Help, Type: GaugeType}, fn: fn}
}

// Describe implements Collector.
func (g *GaugeFunc) Describe() []Desc { return []Desc{g.desc} }

// Collect implements Collector.
func (g *GaugeFunc) Collect() ([]Family, error) {
	return []Family{{Desc: g.desc, Samples: []Sample{{Value: g.fn()}}}}, nil
}

// CounterFunc reads its value from a function every time it is collected. The
// function must never return a smaller value than before.
type CounterFunc struct {
	desc Desc
	fn   func() float64
}

// NewCounterFunc creates a counter backed by fn.
func NewCounterFunc(opts CounterOpts, fn func() float64) *CounterFunc {
	return &CounterFunc{desc: Desc{Name: opts.Name, Help: opts.Help, Type: CounterType}, fn: fn}
}

// Describe implements Collector.
func (c *CounterFunc) Describe() []Desc { return []Desc{c.desc} }

// Collect implements Collector.
func (c *CounterFunc) Collect() ([]Family, error) {
	return []Family{{Desc: c.desc, Samples: []Sample{{Value: c.fn()}}}}, nil
}
