package metrics

import (
	"fmt"
	"sync"
)

type sampler interface {
	sample() Sample
}

// metricVec keeps one child per distinct label-value tuple, in creation order.
type metricVec[T sampler] struct {
	desc       Desc
	labelNames []string
	newChild   func(Labels) T

	mu       sync.RWMutex
	children map[string]T
	order    []string
}

func newMetricVec[T sampler](desc Desc, labelNames []string, newChild func(Labels) T) *metricVec[T] {
	names := make([]string, len(labelNames))
	copy(names, labelNames)
	return &metricVec[T]{
		desc:       desc,
		labelNames: names,
		newChild:   newChild,
		children:   make(map[string]T),
	}
}

// GetMetricWithLabelValues returns the child for the given label values, creating it
// on first use. The number of values must match the number of label names.
func (v *metricVec[T]) GetMetricWithLabelValues(lvs ...string) (T, error) {
	var zero T
	if len(lvs) != len(v.labelNames) {
		return zero, fmt.Errorf("%s: expected %d label values but got %d", v.desc.Name, len(v.labelNames), len(lvs))
	}
	labels := labelsFromValues(v.labelNames, lvs)
	key := labels.Key()

	v.mu.RLock()
	child, ok := v.children[key]
	v.mu.RUnlock()
	if ok {
		return child, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if child, ok = v.children[key]; ok {
		return child, nil
	}
	child = v.newChild(labels)
	v.children[key] = child
	v.order = append(v.order, key)
	return child, nil
}

// WithLabelValues works like GetMetricWithLabelValues but panics on error.
func (v *metricVec[T]) WithLabelValues(lvs ...string) T {
	child, err := v.GetMetricWithLabelValues(lvs...)
	if err != nil {
		panic(err)
	}
	return child
}

// Reset drops every child.
func (v *metricVec[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.children = make(map[string]T)
	v.order = nil
}

// Describe implements Collector.
func (v *metricVec[T]) Describe() []Desc { return []Desc{v.desc} }

// Collect implements Collector.
func (v *metricVec[T]) Collect() ([]Family, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	samples := make([]Sample, 0, len(v.order))
	for _, key := range v.order {
		samples = append(samples, v.children[key].sample())
	}
	return []Family{{Desc: v.desc, Samples: samples}}, nil
}
