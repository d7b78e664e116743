// Package collector provides the built-in metric sources: the default set that
// every agent exposes (process and Go runtime) and the periodically refreshed host
// CPU collector.
package collector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/logger"
	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/registry"
)

// AlreadyInstalledError is returned by DefaultSet.Install after the first call, or
// when the target registry already holds a default set.
type AlreadyInstalledError struct{}

func (AlreadyInstalledError) Error() string { return "default collector set already installed" }

// 已安装过默认集合的 registry，进程内共享
var (
	installedMu   sync.Mutex
	installedInto = map[metrics.Registerer]struct{}{}
)

// DefaultSet 默认采集器集合（进程 + Go 运行时），每个实例、每个 registry 都只能安装一次
type DefaultSet struct {
	cfg config.CollectorConfig

	mu        sync.Mutex
	installed bool

	newProcess func() (metrics.Collector, error)
	newRuntime func() (metrics.Collector, error)
}

// NewDefaultSet 根据采集配置创建默认集合
func NewDefaultSet(cfg config.CollectorConfig) *DefaultSet {
	return &DefaultSet{
		cfg: cfg,
		newProcess: func() (metrics.Collector, error) {
			return NewProcessCollector()
		},
		newRuntime: NewRuntimeCollector,
	}
}

// NewRuntimeCollector bridges client_golang's Go collector with the GC and scheduler
// runtime metrics enabled.
func NewRuntimeCollector() (metrics.Collector, error) {
	return registry.FromPrometheus("go-runtime", collectors.NewGoCollector(
		collectors.WithGoCollectorRuntimeMetrics(collectors.MetricsGC, collectors.MetricsScheduler),
	))
}

// Install registers the enabled members of the set into reg. The second and later
// calls, and any install into a registry that already holds a default set, return
// AlreadyInstalledError and change nothing. If a member fails to register, the
// members registered before it stay registered and the set counts as installed.
// reg must be a comparable value such as *registry.Registry.
func (d *DefaultSet) Install(reg metrics.Registerer) error {
	installedMu.Lock()
	defer installedMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := installedInto[reg]; d.installed || ok {
		return AlreadyInstalledError{}
	}
	d.installed = true
	installedInto[reg] = struct{}{}

	members := []struct {
		name    string
		enabled bool
		build   func() (metrics.Collector, error)
	}{
		{"process", d.cfg.Process.Enable, d.newProcess},
		{"go-runtime", d.cfg.Runtime.Enable, d.newRuntime},
	}

	var errs []error
	for _, m := range members {
		if !m.enabled {
			logger.Debug("default collector disabled", zap.String("name", m.name))
			continue
		}
		c, err := m.build()
		if err != nil {
			errs = append(errs, fmt.Errorf("build %s collector: %w", m.name, err))
			continue
		}
		if err := reg.Register(c); err != nil {
			errs = append(errs, fmt.Errorf("register %s collector: %w", m.name, err))
			continue
		}
		logger.Debug("default collector installed", zap.String("name", m.name))
	}
	return errors.Join(errs...)
}
