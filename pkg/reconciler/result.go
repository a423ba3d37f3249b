package reconciler

import (
	"fmt"

	"github.com/agentstation/regsync/pkg/differ"
)

// Action is the decision taken for one record.
type Action string

const (
	// ActionCreated means the record was (or would be) registered.
	ActionCreated Action = "created"
	// ActionUpdated means the platform copy was (or would be) overwritten.
	ActionUpdated Action = "updated"
	// ActionNoChange means both sides were already equivalent.
	ActionNoChange Action = "no_change"
	// ActionSkipped means the record was malformed or excluded by the mode.
	ActionSkipped Action = "skipped"
	// ActionError means the record failed.
	ActionError Action = "error"
)

// Outcome is the per-record report of a reconciliation.
type Outcome struct {
	Identifier string         `json:"identifier" yaml:"identifier"`
	Name       string         `json:"name" yaml:"name"`
	Action     Action         `json:"action" yaml:"action"`
	Message    string         `json:"message,omitempty" yaml:"message,omitempty"`
	Changes    differ.Changes `json:"changes,omitempty" yaml:"changes,omitempty"`
	Success    bool           `json:"success" yaml:"success"`
	RemoteID   string         `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	DryRun     bool           `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Err        error          `json:"-" yaml:"-"`
}

// String returns a one-line description for logs and reports.
func (o Outcome) String() string {
	if o.Message == "" {
		return fmt.Sprintf("%s %s", o.Identifier, o.Action)
	}
	return fmt.Sprintf("%s %s: %s", o.Identifier, o.Action, o.Message)
}

// Decision is the desired state of the platform modules for one client.
type Decision struct {
	Federal  bool `json:"federal" yaml:"federal"`
	Services bool `json:"services" yaml:"services"`
}

// ModuleOutcome reports the module phase for one matched client.
type ModuleOutcome struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	RemoteID   string   `json:"remote_id" yaml:"remote_id"`
	Decision   Decision `json:"decision" yaml:"decision"`
	Applied    bool     `json:"applied" yaml:"applied"`
	Success    bool     `json:"success" yaml:"success"`
	Message    string   `json:"message,omitempty" yaml:"message,omitempty"`
	Err        error    `json:"-" yaml:"-"`
}
