package collector

import (
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/logger"
	"github.com/health-monitor/pkg/metrics"
)

var (
	descProcessCPU       = metrics.Desc{Name: "process_cpu_seconds_total", Help: "Total user and system CPU time spent in seconds.", Type: metrics.CounterType}
	descProcessRSS       = metrics.Desc{Name: "process_resident_memory_bytes", Help: "Resident memory size in bytes.", Type: metrics.GaugeType}
	descProcessVMS       = metrics.Desc{Name: "process_virtual_memory_bytes", Help: "Virtual memory size in bytes.", Type: metrics.GaugeType}
	descProcessFDs       = metrics.Desc{Name: "process_open_fds", Help: "Number of open file descriptors.", Type: metrics.GaugeType}
	descProcessThreads   = metrics.Desc{Name: "process_threads", Help: "Number of OS threads in the process.", Type: metrics.GaugeType}
	descProcessStartTime = metrics.Desc{Name: "process_start_time_seconds", Help: "Start time of the process since unix epoch in seconds.", Type: metrics.GaugeType}
	descProcessUptime    = metrics.Desc{Name: "process_uptime_seconds", Help: "Seconds since the process started.", Type: metrics.GaugeType}
)

// processSource is the subset of *process.Process the collector reads.
type processSource interface {
	Times() (*cpuTimes, error)
	MemoryInfo() (*process.MemoryInfoStat, error)
	NumFDs() (int32, error)
	NumThreads() (int32, error)
	CreateTime() (int64, error)
}

type cpuTimes struct {
	User, System float64
}

type gopsutilProcess struct {
	p *process.Process
}

func (g gopsutilProcess) Times() (*cpuTimes, error) {
	t, err := g.p.Times()
	if err != nil {
		return nil, err
	}
	return &cpuTimes{User: t.User, System: t.System}, nil
}

func (g gopsutilProcess) MemoryInfo() (*process.MemoryInfoStat, error) { return g.p.MemoryInfo() }
func (g gopsutilProcess) NumFDs() (int32, error)                       { return g.p.NumFDs() }
func (g gopsutilProcess) NumThreads() (int32, error)                   { return g.p.NumThreads() }
func (g gopsutilProcess) CreateTime() (int64, error)                   { return g.p.CreateTime() }

// ProcessCollector reads the agent's own process statistics on every scrape.
// CPU time and memory are mandatory: if either cannot be read the whole collector
// fails for that scrape. Descriptor and thread counts are skipped where the platform
// does not provide them.
type ProcessCollector struct {
	proc processSource
	now  func() time.Time
}

// NewProcessCollector 创建当前进程的采集器
func NewProcessCollector() (*ProcessCollector, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open own process: %w", err)
	}
	return &ProcessCollector{proc: gopsutilProcess{p: p}, now: time.Now}, nil
}

func (c *ProcessCollector) Name() string { return "process" }

func (c *ProcessCollector) Describe() []metrics.Desc {
	return []metrics.Desc{
		descProcessCPU, descProcessRSS, descProcessVMS, descProcessFDs,
		descProcessThreads, descProcessStartTime, descProcessUptime,
	}
}

func (c *ProcessCollector) Collect() ([]metrics.Family, error) {
	times, err := c.proc.Times()
	if err != nil {
		return nil, fmt.Errorf("read cpu times: %w", err)
	}
	mem, err := c.proc.MemoryInfo()
	if err != nil {
		return nil, fmt.Errorf("read memory info: %w", err)
	}

	fams := []metrics.Family{
		single(descProcessCPU, times.User+times.System),
		single(descProcessRSS, float64(mem.RSS)),
		single(descProcessVMS, float64(mem.VMS)),
	}
	if fds, err := c.proc.NumFDs(); err == nil {
		fams = append(fams, single(descProcessFDs, float64(fds)))
	} else {
		logger.Debug("process_open_fds unavailable", zap.Error(err))
	}
	if threads, err := c.proc.NumThreads(); err == nil {
		fams = append(fams, single(descProcessThreads, float64(threads)))
	} else {
		logger.Debug("process_threads unavailable", zap.Error(err))
	}
	if ms, err := c.proc.CreateTime(); err == nil {
		start := time.UnixMilli(ms)
		uptime := c.now().Sub(start).Seconds()
		if uptime < 0 {
			uptime = 0
		}
		fams = append(fams,
			single(descProcessStartTime, float64(ms)/1000),
			single(descProcessUptime, uptime),
		)
	} else {
		logger.Debug("process start time unavailable", zap.Error(err))
	}
	return fams, nil
}

func single(d metrics.Desc, v float64) metrics.Family {
	return metrics.Family{Desc: d, Samples: []metrics.Sample{{Value: v}}}
}
