// Package registry keeps the set of collectors known to the process and turns them
// into one ordered snapshot of metric families.
//
// Registration happens during startup. Snapshots are taken concurrently by request
// handlers; each collector runs in isolation so a failing probe only removes its own
// families from the result.
package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/prometheus/common/model"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/metrics"
)

// Named is implemented by collectors that want a readable name in logs and errors.
type Named interface {
	Name() string
}

type entry struct {
	name      string
	collector metrics.Collector
	declared  map[string]metrics.Type
}

// Registry 指标注册中心，按注册顺序保存采集器
type Registry struct {
	logger *zap.Logger

	mu      sync.RWMutex
	entries []*entry
	descs   map[string]metrics.Desc
	order   []string
}

// New creates an empty registry. A nil logger disables logging.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		descs:  make(map[string]metrics.Desc),
	}
}

// Register adds c under every name it describes. It fails without changing the
// registry if a name is invalid, if a name is already registered with another type,
// or if c itself is already registered. A name registered again with the same type is
// shared: the samples of both collectors are merged under one family.
func (r *Registry) Register(c metrics.Collector) error {
	descs := c.Describe()
	declared := make(map[string]metrics.Type, len(descs))
	names := make([]string, 0, len(descs))
	for _, d := range descs {
		if !model.MetricNameRE.MatchString(d.Name) {
			return &InvalidMetricNameError{Name: d.Name}
		}
		if t, ok := declared[d.Name]; ok {
			if t != d.Type {
				return &DuplicateMetricNameError{Name: d.Name, Existing: t, Requested: d.Type}
			}
			continue
		}
		declared[d.Name] = d.Type
		names = append(names, d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if isComparable(c) {
		for _, e := range r.entries {
			if isComparable(e.collector) && e.collector == c {
				return &AlreadyRegisteredError{Names: names}
			}
		}
	}
	for _, d := range descs {
		if existing, ok := r.descs[d.Name]; ok && existing.Type != d.Type {
			r.logger.Warn("duplicate metric name rejected",
				zap.String("name", d.Name),
				zap.Stringer("existing", existing.Type),
				zap.Stringer("requested", d.Type))
			return &DuplicateMetricNameError{Name: d.Name, Existing: existing.Type, Requested: d.Type}
		}
	}

	for _, d := range descs {
		if _, ok := r.descs[d.Name]; !ok {
			r.descs[d.Name] = d
			r.order = append(r.order, d.Name)
		}
	}
	e := &entry{name: collectorName(c, names), collector: c, declared: declared}
	r.entries = append(r.entries, e)
	r.logger.Debug("registered collector", zap.String("collector", e.name), zap.Strings("metrics", names))
	return nil
}

// MustRegister registers every collector and panics on the first error.
func (r *Registry) MustRegister(cs ...metrics.Collector) {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Names returns the registered metric names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Snapshot collects every registered collector and returns the merged families in
// registration order. Collector failures are logged and left out.
func (r *Registry) Snapshot() []metrics.Family {
	fams, _ := r.Gather()
	return fams
}

// Gather works like Snapshot and also returns the failures that were contained.
func (r *Registry) Gather() ([]metrics.Family, []error) {
	r.mu.RLock()
	entries := make([]*entry, len(r.entries))
	copy(entries, r.entries)
	order := make([]string, len(r.order))
	copy(order, r.order)
	descs := make(map[string]metrics.Desc, len(r.descs))
	for k, v := range r.descs {
		descs[k] = v
	}
	r.mu.RUnlock()

	var errs []error
	merged := make(map[string]*metrics.Family, len(order))
	seen := make(map[string]map[string]struct{}, len(order))

	for _, e := range entries {
		fams, err := collect(e)
		if err != nil {
			errs = append(errs, err)
			r.logger.Error("collector failed, dropping its metrics from snapshot",
				zap.String("collector", e.name), zap.Error(err))
			continue
		}
		for _, fam := range fams {
			t, ok := e.declared[fam.Name]
			if !ok {
				r.logger.Warn("collector emitted undeclared metric, skipping",
					zap.String("collector", e.name), zap.String("name", fam.Name))
				continue
			}
			if t != fam.Type {
				r.logger.Warn("collector emitted metric with unexpected type, skipping",
					zap.String("collector", e.name), zap.String("name", fam.Name),
					zap.Stringer("declared", t), zap.Stringer("emitted", fam.Type))
				continue
			}
			out, ok := merged[fam.Name]
			if !ok {
				out = &metrics.Family{Desc: descs[fam.Name]}
				merged[fam.Name] = out
				seen[fam.Name] = make(map[string]struct{})
			}
			for _, s := range fam.Samples {
				key := s.Labels.Key()
				if _, dup := seen[fam.Name][key]; dup {
					r.logger.Warn("duplicate series, keeping the first one",
						zap.String("name", fam.Name), zap.String("collector", e.name))
					continue
				}
				seen[fam.Name][key] = struct{}{}
				out.Samples = append(out.Samples, s)
			}
		}
	}

	result := make([]metrics.Family, 0, len(merged))
	for _, name := range order {
		if fam, ok := merged[name]; ok {
			result = append(result, *fam)
		}
	}
	return result, errs
}

// collect runs one collector and turns errors and panics into a CollectorFailureError.
func collect(e *entry) (fams []metrics.Family, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fams = nil
			err = &CollectorFailureError{Collector: e.name, Err: fmt.Errorf("panic: %v", rec)}
		}
	}()
	fams, err = e.collector.Collect()
	if err != nil {
		return nil, &CollectorFailureError{Collector: e.name, Err: err}
	}
	return fams, nil
}

func collectorName(c metrics.Collector, names []string) string {
	if n, ok := c.(Named); ok {
		return n.Name()
	}
	if len(names) > 0 {
		return names[0]
	}
	return fmt.Sprintf("%T", c)
}

func isComparable(c metrics.Collector) bool {
	return reflect.TypeOf(c).Comparable()
}
