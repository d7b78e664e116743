package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	cload "github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/logger"
	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/monitor"
)

// CPUCollector 主机 CPU 采集器，由 Agent 按 monitor.interval 周期调用。
// 使用率需要两次采样之间的差值，所以不能在 scrape 时懒加载。
type CPUCollector struct {
	name    string
	cfg     *config.HostCollectorConfig
	metrics monitor.CPUCollectorMetrics
	agent   monitor.AgentMetrics

	cpuInfoInitialized bool                     // 防止重复采集 CPU 静态信息
	lastCPUTimes       map[string]cpu.TimesStat // 上一次的CPU时间，用于计算各模式占比

	// gopsutil 入口，测试时替换
	percent func(interval time.Duration, perCPU bool) ([]float64, error)
	times   func(perCPU bool) ([]cpu.TimesStat, error)
	loadAvg func() (*cload.AvgStat, error)
	info    func() ([]cpu.InfoStat, error)
	counts  func(logical bool) (int, error)
}

// NewCPUCollector 创建CPU采集器
func NewCPUCollector(cfg *config.HostCollectorConfig, f *metrics.MetricFactory, agent monitor.AgentMetrics) *CPUCollector {
	return &CPUCollector{
		name:         "host-cpu",
		cfg:          cfg,
		lastCPUTimes: make(map[string]cpu.TimesStat),
		metrics: monitor.CPUCollectorMetrics{
			UsageRatio: f.NewCPUUsageRatio(),
			ModeRatio:  f.NewCPUModeRatio(),
			Load1:      f.NewCPULoad1(),
			Load5:      f.NewCPULoad5(),
			Load15:     f.NewCPULoad15(),
			CPUInfo:    f.NewCPUInfo(),
		},
		agent:   agent,
		percent: cpu.Percent,
		times:   cpu.Times,
		loadAvg: cload.Avg,
		info:    cpu.Info,
		counts:  cpu.Counts,
	}
}

// Name 返回采集器名称
func (c *CPUCollector) Name() string { return c.name }

// Init 预检查CPU可用性
func (c *CPUCollector) Init() error {
	if _, err := c.counts(false); err != nil {
		logger.Error("failed to get CPU counts", zap.Error(err))
		return err
	}
	return nil
}

// Collect 执行指标采集。使用率失败时直接返回错误，负载和模式占比失败只计数。
func (c *CPUCollector) Collect(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.agent.CollectDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	// 1. 采集CPU使用率 整体/每核
	usageList, err := c.percent(0, c.cfg.CollectPerCore)
	if err != nil || len(usageList) == 0 {
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
		if err == nil {
			err = fmt.Errorf("empty result")
		}
		return fmt.Errorf("get cpu usage failed: %w", err)
	}
	if c.cfg.CollectPerCore {
		for i, usage := range usageList {
			c.metrics.UsageRatio.WithLabelValues(fmt.Sprintf("cpu%d", i)).Set(usage / 100)
		}
	} else {
		c.metrics.UsageRatio.WithLabelValues("total").Set(usageList[0] / 100)
	}

	// 2. 采集CPU负载
	if load, err := c.loadAvg(); err != nil {
		logger.Warn("failed to get CPU load", zap.Error(err))
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
	} else {
		c.metrics.Load1.Set(load.Load1)
		c.metrics.Load5.Set(load.Load5)
		c.metrics.Load15.Set(load.Load15)
		logger.Debug("collected CPU load",
			zap.Float64("load1", load.Load1), zap.Float64("load5", load.Load5), zap.Float64("load15", load.Load15))
	}

	// 3. 各模式占比
	if err := c.collectModes(); err != nil {
		logger.Warn("failed to collect CPU mode times", zap.Error(err))
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
	}

	// 4. 静态信息只采集一次
	if err := c.collectInfo(); err != nil {
		logger.Warn("failed to collect CPU info", zap.Error(err))
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
	}
	return nil
}

// collectModes 计算两次采样之间各模式的时间占比，首次采集只记录基准
func (c *CPUCollector) collectModes() error {
	stats, err := c.times(c.cfg.CollectPerCore)
	if err != nil {
		return err
	}
	for _, cur := range stats {
		id := cur.CPU
		if id == "cpu-total" || id == "" {
			id = "total"
		}
		last, ok := c.lastCPUTimes[id]
		c.lastCPUTimes[id] = cur
		if !ok {
			logger.Debug("first collect CPU times (skip ratio calc)", zap.String("cpu", id))
			continue
		}
		deltaTotal := busyAndIdle(cur) - busyAndIdle(last)
		if deltaTotal <= 0 {
			continue
		}
		for _, m := range []struct {
			mode      string
			cur, last float64
		}{
			{"user", cur.User, last.User},
			{"nice", cur.Nice, last.Nice},
			{"system", cur.System, last.System},
			{"idle", cur.Idle, last.Idle},
			{"iowait", cur.Iowait, last.Iowait},
			{"irq", cur.Irq, last.Irq},
			{"softirq", cur.Softirq, last.Softirq},
			{"steal", cur.Steal, last.Steal},
		} {
			c.metrics.ModeRatio.WithLabelValues(id, m.mode).Set((m.cur - m.last) / deltaTotal)
		}
	}
	return nil
}

func busyAndIdle(t cpu.TimesStat) float64 {
	return t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq + t.Steal
}

// collectInfo 型号与核心数（物理/逻辑）
func (c *CPUCollector) collectInfo() error {
	if c.cpuInfoInitialized {
		return nil
	}
	infos, err := c.info()
	if err != nil {
		return err
	}
	physical, err := c.counts(false)
	if err != nil {
		return err
	}
	logical, err := c.counts(true)
	if err != nil {
		return err
	}
	model := "unknown"
	if len(infos) > 0 && infos[0].ModelName != "" {
		model = infos[0].ModelName
	}
	c.metrics.CPUInfo.WithLabelValues(model, strconv.Itoa(physical), strconv.Itoa(logical)).Set(1)
	c.cpuInfoInitialized = true
	logger.Info("CPU static info collection completed",
		zap.String("model_name", model), zap.Int("physical_cores", physical), zap.Int("logical_cores", logical))
	return nil
}

func (c *CPUCollector) Close() error { return nil }
