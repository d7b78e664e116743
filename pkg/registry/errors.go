package registry

import (
	"fmt"

	"github.com/health-monitor/pkg/metrics"
)

// DuplicateMetricNameError is returned when a name is already registered under a
// different type.
type DuplicateMetricNameError struct {
	Name      string
	Existing  metrics.Type
	Requested metrics.Type
}

func (e *DuplicateMetricNameError) Error() string {
	return fmt.Sprintf("metric %q already registered as %s, cannot register as %s", e.Name, e.Existing, e.Requested)
}

// AlreadyRegisteredError is returned when the same collector is registered twice.
type AlreadyRegisteredError struct {
	Names []string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("collector for %v already registered", e.Names)
}

// InvalidMetricNameError is returned for names outside the exposition grammar.
type InvalidMetricNameError struct {
	Name string
}

func (e *InvalidMetricNameError) Error() string {
	return fmt.Sprintf("invalid metric name %q", e.Name)
}

// CollectorFailureError wraps an error or panic raised by one collector while a
// snapshot was taken. The collector's contribution is dropped from that snapshot.
type CollectorFailureError struct {
	Collector string
	Err       error
}

func (e *CollectorFailureError) Error() string {
	return fmt.Sprintf("collector %s failed: %v", e.Collector, e.Err)
}

func (e *CollectorFailureError) Unwrap() error { return e.Err }
