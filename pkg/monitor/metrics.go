package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/health-monitor/pkg/metrics"
)

// -------------------------- CPU采集器指标结构体 --------------------------
type CPUCollectorMetrics struct {
	UsageRatio *metrics.GaugeVec // CPU使用率（0-1），标签 cpu
	ModeRatio  *metrics.GaugeVec // 各模式时间占比（0-1），标签 cpu/mode
	Load1      *metrics.Gauge
	Load5      *metrics.Gauge
	Load15     *metrics.Gauge
	CPUInfo    *metrics.GaugeVec // 静态信息，值恒为 1
}

// -------------------------- 采集器自身指标 --------------------------
type AgentMetrics struct {
	CollectErrors   *metrics.CounterVec
	CollectDuration *metrics.HistogramVec
}

// -------------------------- HTTP 服务指标（promhttp 中间件使用） --------------------------
type HTTPMetrics struct {
	Requests *prometheus.CounterVec   // 标签 handler/code/method
	Duration *prometheus.HistogramVec // 标签 handler/method
}

// -------------------------- /metrics 自身指标 --------------------------
type ScrapeMetrics struct {
	CollectorFailures   *metrics.CounterVec
	SerializationErrors *metrics.Counter
}
