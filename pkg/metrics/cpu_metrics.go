package metrics

// NewCPUUsageRatio CPU 使用率（0-1），标签 cpu: cpu0/cpu1/.../total
func (m *MetricFactory) NewCPUUsageRatio() *GaugeVec {
	return m.NewGaugeVec(GaugeOpts{
		Name: "system_cpu_usage_ratio",
		Help: "CPU usage ratio (0-1) per core or total",
	}, []string{"cpu"})
}

func (m *MetricFactory) NewCPULoad1() *Gauge {
	return m.NewGauge(GaugeOpts{
		Name: "system_cpu_load_1",
		Help: "CPU 1-minute load average",
	})
}

func (m *MetricFactory) NewCPULoad5() *Gauge {
	return m.NewGauge(GaugeOpts{
		Name: "system_cpu_load_5",
		Help: "CPU 5-minute load average",
	})
}

func (m *MetricFactory) NewCPULoad15() *Gauge {
	return m.NewGauge(GaugeOpts{
		Name: "system_cpu_load_15",
		Help: "CPU 15-minute load average",
	})
}

// NewCPUModeRatio 各模式（user/system/idle/iowait...）时间占比，标签 cpu/mode
func (m *MetricFactory) NewCPUModeRatio() *GaugeVec {
	return m.NewGaugeVec(GaugeOpts{
		Name: "system_cpu_mode_ratio",
		Help: "Share of CPU time spent in each mode since the previous collection (0-1)",
	}, []string{"cpu", "mode"})
}

// NewCPUInfo CPU 静态信息，值恒为 1
func (m *MetricFactory) NewCPUInfo() *GaugeVec {
	return m.NewGaugeVec(GaugeOpts{
		Name: "system_cpu_info",
		Help: "CPU model information, value is always 1",
	}, []string{"model_name", "physical_cores", "logical_cores"})
}
