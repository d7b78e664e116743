package metrics

// MetricFactory 指标工厂，用于统一创建并注册指标（counter/gauge/histogram/summary）。
// 所有方法在注册失败时 panic，只应在启动阶段调用。
type MetricFactory struct {
	reg Registerer
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registerer) *MetricFactory {
	return &MetricFactory{reg: reg}
}

func (m *MetricFactory) NewCounter(opts CounterOpts) *Counter {
	c := NewCounter(opts)
	m.reg.MustRegister(c)
	return c
}

func (m *MetricFactory) NewCounterVec(opts CounterOpts, labelNames []string) *CounterVec {
	c := NewCounterVec(opts, labelNames)
	m.reg.MustRegister(c)
	return c
}

func (m *MetricFactory) NewGauge(opts GaugeOpts) *Gauge {
	g := NewGauge(opts)
	m.reg.MustRegister(g)
	return g
}

func (m *MetricFactory) NewGaugeVec(opts GaugeOpts, labelNames []string) *GaugeVec {
	g := NewGaugeVec(opts, labelNames)
	m.reg.MustRegister(g)
	return g
}

func (m *MetricFactory) NewGaugeFunc(opts GaugeOpts, fn func() float64) *GaugeFunc {
	g := NewGaugeFunc(opts, fn)
	m.reg.MustRegister(g)
	return g
}

func (m *MetricFactory) NewHistogram(opts HistogramOpts) *Histogram {
	h := NewHistogram(opts)
	m.reg.MustRegister(h)
	return h
}

func (m *MetricFactory) NewHistogramVec(opts HistogramOpts, labelNames []string) *HistogramVec {
	h := NewHistogramVec(opts, labelNames)
	m.reg.MustRegister(h)
	return h
}

func (m *MetricFactory) NewSummary(opts SummaryOpts) *Summary {
	s := NewSummary(opts)
	m.reg.MustRegister(s)
	return s
}
