package metrics

// NewAgentCollectErrorsTotal 创建「采集器错误总数」指标
// 指标类型：Counter - 仅单调递增，服务重启后归零
// 标签 collector: 采集器名称（如 "host-cpu"）
func (m *MetricFactory) NewAgentCollectErrorsTotal() *CounterVec {
	return m.NewCounterVec(CounterOpts{
		Name: "agent_collect_errors_total",
		Help: "Total number of collector errors",
	}, []string{"collector"})
}

// NewAgentCollectDurationSeconds 创建「采集器采集耗时分布」指标
// 指标类型：Histogram，分桶 0.01s ~ 5.12s
func (m *MetricFactory) NewAgentCollectDurationSeconds() *HistogramVec {
	return m.NewHistogramVec(HistogramOpts{
		Name:    "agent_collect_duration_seconds",
		Help:    "Duration of collector execution",
		Buckets: ExponentialBuckets(0.01, 2, 10),
	}, []string{"collector"})
}

// NewScrapeCollectorFailuresTotal counts collectors dropped from a snapshot.
func (m *MetricFactory) NewScrapeCollectorFailuresTotal() *CounterVec {
	return m.NewCounterVec(CounterOpts{
		Name: "health_monitor_scrape_collector_failures_total",
		Help: "Collectors whose contribution was dropped from a scrape",
	}, []string{"collector"})
}

// NewScrapeSerializationErrorsTotal counts series skipped while encoding.
func (m *MetricFactory) NewScrapeSerializationErrorsTotal() *Counter {
	return m.NewCounter(CounterOpts{
		Name: "health_monitor_scrape_serialization_errors_total",
		Help: "Series skipped because they could not be serialized",
	})
}
