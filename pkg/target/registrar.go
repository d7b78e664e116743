package target

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/metrics"
)

var valid = validator.New()

// Registrar validates registration requests and stores accepted targets.
type Registrar struct {
	store  *Store
	logger *zap.Logger

	registrations *metrics.CounterVec
}

// NewRegistrar creates a registrar over store. When f is non-nil the registrar
// exposes health_monitor_registered_targets and
// health_monitor_target_registrations_total through it.
func NewRegistrar(store *Store, f *metrics.MetricFactory, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registrar{store: store, logger: logger}
	if f != nil {
		r.registrations = f.NewTargetRegistrationsTotal()
		f.NewRegisteredTargets(func() float64 { return float64(store.Len()) })
	}
	return r
}

// Register validates req and records its URL as sent. A missing or empty apiUrl is rejected
// with *MissingFieldError; nothing is stored in that case.
func (r *Registrar) Register(ctx context.Context, req Request) (Target, error) {
	state := Validating
	r.logger.Debug("target registration", zap.Stringer("state", state))

	if err := valid.StructCtx(ctx, req); err != nil {
		state = Rejected
		r.observe(state)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			r.logger.Info("target registration rejected",
				zap.Stringer("state", state), zap.String("field", verrs[0].Field()))
			return Target{}, &MissingFieldError{Field: "apiUrl"}
		}
		return Target{}, err
	}

	t := r.store.Add(req.APIURL)
	state = Accepted
	r.observe(state)
	r.logger.Info("target registered",
		zap.Stringer("state", state), zap.String("id", t.ID), zap.String("url", t.URL))
	return t, nil
}

func (r *Registrar) Targets() []Target { return r.store.List() }

func (r *Registrar) observe(s State) {
	if r.registrations != nil {
		r.registrations.WithLabelValues(s.String()).Inc()
	}
}
