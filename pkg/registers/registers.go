package registers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/collector"
	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/logger"
	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/monitor"
	"github.com/health-monitor/pkg/registry"
	"github.com/health-monitor/pkg/target"
)

// Runtime 启动阶段组装好的组件，交给 HTTP 服务和关闭流程使用
type Runtime struct {
	Registry  *registry.Registry
	Agent     Agent
	Registrar *target.Registrar
	HTTP      monitor.HTTPMetrics
	Scrape    monitor.ScrapeMetrics
}

// Module 周期探针的开关 + 构造函数
type Module struct {
	Enabled bool
	Name    string
	NewFunc func() Probe
}

// InitRegistry 组装指标注册中心：
//  1. 默认采集器集合（进程 + Go 运行时）只安装一次
//  2. agent / scrape / target / http 自身指标
//  3. 按配置注册周期探针并启动 Agent
func InitRegistry(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Runtime, error) {
	reg := registry.New(l)
	if err := collector.NewDefaultSet(cfg.Monitor.Collectors).Install(reg); err != nil {
		return nil, fmt.Errorf("install default collectors: %w", err)
	}

	f := metrics.NewMetricFactory(reg)
	rt := &Runtime{
		Registry: reg,
		Scrape: monitor.ScrapeMetrics{
			CollectorFailures:   f.NewScrapeCollectorFailuresTotal(),
			SerializationErrors: f.NewScrapeSerializationErrorsTotal(),
		},
	}
	rt.Registrar = target.NewRegistrar(target.NewStore(), f, l)

	httpMetrics, err := NewHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}
	rt.HTTP = httpMetrics

	agentMetrics := monitor.AgentMetrics{
		CollectErrors:   f.NewAgentCollectErrorsTotal(),
		CollectDuration: f.NewAgentCollectDurationSeconds(),
	}
	agent := NewAgent(cfg.Monitor.Interval)
	registered := RegisterProbes(agent, cfg, f, agentMetrics)
	if err := agent.Start(ctx); err != nil {
		return nil, fmt.Errorf("start agent: %w", err)
	}
	rt.Agent = agent

	logger.Info("metrics registry ready",
		zap.Strings("metrics", reg.Names()),
		zap.Int("probes", len(registered)),
		zap.Duration("interval", cfg.Monitor.Interval))
	return rt, nil
}

// RegisterProbes 周期探针注册统一入口，新增探针只需在 modules 列表添加一条
func RegisterProbes(agent Agent, cfg *config.Config, f *metrics.MetricFactory, am monitor.AgentMetrics) []Probe {
	modules := []Module{
		{
			Enabled: cfg.Monitor.Collectors.Host.Enable,
			Name:    "host-cpu",
			NewFunc: func() Probe {
				return collector.NewCPUCollector(&cfg.Monitor.Collectors.Host, f, am)
			},
		},
	}

	var registered []Probe
	for _, m := range modules {
		if !m.Enabled {
			logger.Debug("probe disabled", zap.String("name", m.Name))
			continue
		}
		p := m.NewFunc()
		agent.Register(p)
		registered = append(registered, p)
		logger.Debug("registered probe", zap.String("name", m.Name))
	}
	return registered
}

// NewHTTPMetrics 创建 promhttp 中间件使用的请求计数与耗时指标，通过桥接暴露到 reg。
// 向量在第一次请求前没有子指标，所以显式声明描述。
func NewHTTPMetrics(reg metrics.Registerer) (monitor.HTTPMetrics, error) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests handled, partitioned by handler, status code and method.",
	}, []string{"handler", "code", "method"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler", "method"})

	bridges := []struct {
		name string
		c    prometheus.Collector
		desc metrics.Desc
	}{
		{"http-requests", requests, metrics.Desc{Name: "http_requests_total", Help: "HTTP requests handled, partitioned by handler, status code and method.", Type: metrics.CounterType}},
		{"http-duration", duration, metrics.Desc{Name: "http_request_duration_seconds", Help: "HTTP request latencies in seconds.", Type: metrics.HistogramType}},
	}
	for _, b := range bridges {
		c, err := registry.FromPrometheus(b.name, b.c, b.desc)
		if err != nil {
			return monitor.HTTPMetrics{}, fmt.Errorf("bridge %s: %w", b.name, err)
		}
		if err := reg.Register(c); err != nil {
			return monitor.HTTPMetrics{}, fmt.Errorf("register %s: %w", b.name, err)
		}
	}
	return monitor.HTTPMetrics{Requests: requests, Duration: duration}, nil
}
