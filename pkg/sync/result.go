package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/regsync/pkg/reconciler"
)

// Stats aggregates the outcomes of a run.
// Created+Updated+NoChange+Skipped+Errors always equals Total.
type Stats struct {
	Total    int `json:"total" yaml:"total"`
	Created  int `json:"created" yaml:"created"`
	Updated  int `json:"updated" yaml:"updated"`
	NoChange int `json:"no_change" yaml:"no_change"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	Errors   int `json:"errors" yaml:"errors"`

	// Module phase
	FederalEnabled   int `json:"federal_enabled" yaml:"federal_enabled"`
	FederalDisabled  int `json:"federal_disabled" yaml:"federal_disabled"`
	ServicesEnabled  int `json:"services_enabled" yaml:"services_enabled"`
	ServicesDisabled int `json:"services_disabled" yaml:"services_disabled"`
	ModuleErrors     int `json:"module_errors" yaml:"module_errors"`
}

// Record counts one record outcome.
func (s *Stats) Record(o reconciler.Outcome) {
	s.Total++
	switch o.Action {
	case reconciler.ActionCreated:
		s.Created++
	case reconciler.ActionUpdated:
		s.Updated++
	case reconciler.ActionNoChange:
		s.NoChange++
	case reconciler.ActionSkipped:
		s.Skipped++
	default:
		s.Errors++
	}
}

// RecordModules counts one module outcome.
func (s *Stats) RecordModules(m reconciler.ModuleOutcome) {
	if m.Err != nil {
		s.ModuleErrors++
		return
	}
	if m.Decision.Federal {
		s.FederalEnabled++
	} else {
		s.FederalDisabled++
	}
	if m.Decision.Services {
		s.ServicesEnabled++
	} else {
		s.ServicesDisabled++
	}
}

// Consistent reports whether the per-action counts add up to Total.
func (s Stats) Consistent() bool {
	return s.Created+s.Updated+s.NoChange+s.Skipped+s.Errors == s.Total
}

// Result represents the complete result of a sync operation.
type Result struct {
	RunID     string                     `json:"run_id" yaml:"run_id"`
	Stats     Stats                      `json:"stats" yaml:"stats"`
	Outcomes  []reconciler.Outcome       `json:"outcomes" yaml:"outcomes"`   // In input order
	Modules   []reconciler.ModuleOutcome `json:"modules,omitempty" yaml:"modules,omitempty"`
	DryRun    bool                       `json:"dry_run" yaml:"dry_run"`
	Mode      reconciler.Mode            `json:"mode" yaml:"mode"`
	StartedAt time.Time                  `json:"started_at" yaml:"started_at"`
	Duration  time.Duration              `json:"duration" yaml:"duration"`

	// Remote index diagnostics
	RemoteCount      int `json:"remote_count" yaml:"remote_count"`
	RemoteDuplicates int `json:"remote_duplicates,omitempty" yaml:"remote_duplicates,omitempty"`
}

// HasChanges returns true if the run created or updated anything.
func (r *Result) HasChanges() bool {
	return r.Stats.Created > 0 || r.Stats.Updated > 0
}

// Failed returns the outcomes that ended in error.
func (r *Result) Failed() []reconciler.Outcome {
	var out []reconciler.Outcome
	for _, o := range r.Outcomes {
		if o.Action == reconciler.ActionError {
			out = append(out, o)
		}
	}
	return out
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	s := r.Stats
	summary := fmt.Sprintf("%d records: %d created, %d updated, %d unchanged, %d skipped, %d errors",
		s.Total, s.Created, s.Updated, s.NoChange, s.Skipped, s.Errors)

	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if r.Mode != "" && r.Mode != reconciler.ModeFull {
		parts = append(parts, fmt.Sprintf("(%s only)", r.Mode))
	}
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}

	if len(r.Modules) > 0 {
		summary += fmt.Sprintf("; modules: federal %d on/%d off, services %d on/%d off, %d errors",
			s.FederalEnabled, s.FederalDisabled, s.ServicesEnabled, s.ServicesDisabled, s.ModuleErrors)
	}
	return summary
}
