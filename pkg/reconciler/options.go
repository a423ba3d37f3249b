package reconciler

import (
	"time"

	"github.com/agentstation/regsync/pkg/differ"
	"github.com/agentstation/regsync/pkg/errors"
)

// options configures a Reconciler and the module phase.
type options struct {
	gate   Gate
	mode   Mode
	dryRun bool
	enrich bool
	differ *differ.Differ
	now    func() time.Time
}

func defaultOptions() *options {
	return &options{
		gate:   openGate{},
		mode:   ModeFull,
		enrich: true,
		differ: differ.New(),
		now:    time.Now,
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.mode.ReadOnly() {
		o.dryRun = true
	}
	return o, nil
}

func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithGate sets the limiter every mutation waits on.
func WithGate(gate Gate) Option {
	return func(o *options) error {
		if gate == nil {
			return &errors.ValidationError{
				Field:   "gate",
				Message: "cannot be nil",
			}
		}
		o.gate = gate
		return nil
	}
}

// WithMode restricts the actions taken. Compare mode implies dry-run.
func WithMode(mode Mode) Option {
	return func(o *options) error {
		if !mode.Valid() {
			return errors.NewValidationError("mode", string(mode), "unknown mode")
		}
		o.mode = mode
		return nil
	}
}

// WithDryRun computes every decision but sends no mutation.
func WithDryRun(enabled bool) Option {
	return func(o *options) error {
		o.dryRun = enabled
		return nil
	}
}

// WithEnrichment toggles the document and city lookups made before a create.
func WithEnrichment(enabled bool) Option {
	return func(o *options) error {
		o.enrich = enabled
		return nil
	}
}

// WithDiffer replaces the comparison engine.
func WithDiffer(d *differ.Differ) Option {
	return func(o *options) error {
		if d == nil {
			return &errors.ValidationError{
				Field:   "differ",
				Message: "cannot be nil",
			}
		}
		o.differ = d
		return nil
	}
}

// WithClock sets the time source used for certificate expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
