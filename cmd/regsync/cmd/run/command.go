// Package run provides the sync, create, update, compare and modules
// commands. They share one implementation and differ only in the
// reconciliation mode.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/regsync/cmd/application"
	"github.com/agentstation/regsync/pkg/reconciler"
)

type description struct {
	use     string
	short   string
	long    string
	example string
}

var descriptions = map[reconciler.Mode]description{
	reconciler.ModeFull: {
		use:   "sync",
		short: "Register, update and configure every registry entry",
		long: `Sync reconciles every registry entry with the platform:

• entries the platform does not have are registered
• entries whose tracked fields drifted are updated in place
• matched clients get their federal and services modules configured

Entries that fail are reported and the run continues. An authentication
failure stops the run; entries not yet processed are reported as skipped.`,
		example: `  regsync sync -i registry.yaml --dry-run     # Preview every decision
  regsync sync -i registry.yaml --workers 4   # Process four entries at a time
  regsync sync -i - -o json < registry.json   # Read stdin, print JSON`,
	},
	reconciler.ModeCreate: {
		use:   "create",
		short: "Register registry entries missing from the platform",
		long: `Create registers the registry entries the platform does not have yet.
Entries already on the platform are reported as skipped.`,
		example: `  regsync create -i registry.yaml --limit 10`,
	},
	reconciler.ModeUpdate: {
		use:   "update",
		short: "Update platform clients that drifted from the registry",
		long: `Update overwrites the tracked fields of clients already on the platform.
Entries the platform does not have are reported as skipped.`,
		example: `  regsync update -i registry.yaml --interval 2s`,
	},
	reconciler.ModeCompare: {
		use:   "compare",
		short: "Report differences without changing the platform",
		long: `Compare lists what a sync would do, field by field, and never writes
to the platform. Module decisions are reported as well.`,
		example: `  regsync compare -i registry.yaml -o wide`,
	},
	reconciler.ModeModules: {
		use:   "modules",
		short: "Configure federal and services modules of existing clients",
		long: `Modules configures the federal and services modules of every registry
entry the platform already has. Client records are neither created nor
updated. The federal module follows the client's digital certificate; the
services module follows the registry's taxation label.`,
		example: `  regsync modules -i registry.yaml --dry-run`,
	},
}

// NewCommand creates the command running reconciliation in mode.
func NewCommand(app application.Application, mode reconciler.Mode) *cobra.Command {
	d, ok := descriptions[mode]
	if !ok {
		panic(fmt.Sprintf("programming error: no command for mode %q", mode))
	}

	var flags *Flags
	cmd := &cobra.Command{
		Use:     d.use,
		GroupID: "core",
		Short:   d.short,
		Long:    d.long,
		Example: d.example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd, app, mode, flags)
		},
	}

	flags = addFlags(cmd, mode)
	return cmd
}
