// Package sync provides options and results for reconciling a registry
// with the client platform.
package sync

import (
	"fmt"
	"time"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/reconciler"
)

// Options controls a run of Client.Sync.
type Options struct {
	// Run control
	DryRun   bool            // Compute every decision without mutating the platform
	Mode     reconciler.Mode // Which actions are allowed
	Modules  bool            // Configure federal and services modules for matched clients
	Timeout  time.Duration   // Deadline for the whole run (0 means none)
	Interval time.Duration   // Minimum spacing between mutating requests

	// Input shaping
	Limit int // Process only the first Limit records (0 means all)

	// Throughput
	Workers  int // Concurrent record workers
	PageSize int // Client listing page size
}

// Apply applies the given options to the sync options.
func (s *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(s)
	}
	if s.Mode.ReadOnly() {
		s.DryRun = true
	}
	return s
}

// Defaults returns the default sync options.
func Defaults() *Options {
	return &Options{
		DryRun:   false,
		Mode:     reconciler.ModeFull,
		Modules:  true,
		Timeout:  0,
		Interval: constants.DefaultInterval,
		Limit:    0,
		Workers:  constants.DefaultWorkers,
		PageSize: constants.DefaultPageSize,
	}
}

// Option is a function that configures sync Options.
type Option func(*Options)

// Validate checks if the sync options are valid.
func (s *Options) Validate() error {
	if !s.Mode.Valid() {
		return &errors.ValidationError{
			Field:   "Mode",
			Value:   s.Mode,
			Message: fmt.Sprintf("unknown mode '%s'", s.Mode),
		}
	}
	if s.Timeout < 0 {
		return &errors.ValidationError{
			Field:   "Timeout",
			Value:   s.Timeout,
			Message: "timeout must be non-negative",
		}
	}
	if s.Interval < 0 {
		return &errors.ValidationError{
			Field:   "Interval",
			Value:   s.Interval,
			Message: "interval must be non-negative",
		}
	}
	if s.Limit < 0 {
		return &errors.ValidationError{
			Field:   "Limit",
			Value:   s.Limit,
			Message: "limit must be non-negative",
		}
	}
	if s.Workers < 1 || s.Workers > constants.MaxWorkers {
		return &errors.ValidationError{
			Field:   "Workers",
			Value:   s.Workers,
			Message: fmt.Sprintf("workers must be between 1 and %d", constants.MaxWorkers),
		}
	}
	if s.PageSize < 1 || s.PageSize > constants.MaxPageSize {
		return &errors.ValidationError{
			Field:   "PageSize",
			Value:   s.PageSize,
			Message: fmt.Sprintf("page size must be between 1 and %d", constants.MaxPageSize),
		}
	}
	return nil
}

// ModulesEnabled reports whether the module phase runs. Modules mode always
// runs it; full and compare runs follow the Modules toggle.
func (s *Options) ModulesEnabled() bool {
	if s.Mode.ModulesOnly() {
		return true
	}
	return s.Modules && (s.Mode == reconciler.ModeFull || s.Mode == reconciler.ModeCompare)
}

// ReconcilerOptions converts sync options to reconciler options.
func (s *Options) ReconcilerOptions() []reconciler.Option {
	return []reconciler.Option{
		reconciler.WithMode(s.Mode),
		reconciler.WithDryRun(s.DryRun),
	}
}

// WithDryRun configures dry run mode.
func WithDryRun(dryRun bool) Option {
	return func(opts *Options) {
		opts.DryRun = dryRun
	}
}

// WithMode restricts the run to creating, updating or comparing.
func WithMode(mode reconciler.Mode) Option {
	return func(opts *Options) {
		opts.Mode = mode
	}
}

// WithModules toggles the module phase.
func WithModules(enabled bool) Option {
	return func(opts *Options) {
		opts.Modules = enabled
	}
}

// WithTimeout sets a deadline for the whole run.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

// WithInterval sets the minimum spacing between mutating requests.
func WithInterval(interval time.Duration) Option {
	return func(opts *Options) {
		opts.Interval = interval
	}
}

// WithLimit processes only the first n records.
func WithLimit(n int) Option {
	return func(opts *Options) {
		opts.Limit = n
	}
}

// WithWorkers sets the number of concurrent record workers.
func WithWorkers(n int) Option {
	return func(opts *Options) {
		opts.Workers = n
	}
}

// WithPageSize sets the client listing page size.
func WithPageSize(n int) Option {
	return func(opts *Options) {
		opts.PageSize = n
	}
}

// NewOptions creates sync options with defaults and applies the given options.
func NewOptions(opts ...Option) *Options {
	return Defaults().Apply(opts...)
}
