package metrics

// NewTargetRegistrationsTotal counts /connect-api outcomes, labelled accepted or rejected.
func (m *MetricFactory) NewTargetRegistrationsTotal() *CounterVec {
	return m.NewCounterVec(CounterOpts{
		Name: "health_monitor_target_registrations_total",
		Help: "Target registration attempts by result",
	}, []string{"result"})
}

// NewRegisteredTargets exposes the current number of registered targets.
func (m *MetricFactory) NewRegisteredTargets(count func() float64) *GaugeFunc {
	return m.NewGaugeFunc(GaugeOpts{
		Name: "health_monitor_registered_targets",
		Help: "Number of targets registered through /connect-api",
	}, count)
}
