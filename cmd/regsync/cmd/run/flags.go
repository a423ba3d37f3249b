package run

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/reconciler"
	"github.com/agentstation/regsync/pkg/sync"
)

// Flags holds the run command flags.
type Flags struct {
	Input       string
	DryRun      bool
	Interval    time.Duration
	Limit       int
	Workers     int
	PageSize    int
	Timeout     time.Duration
	Modules     bool
	MetricsFile string
	Report      string

	cmd *cobra.Command
}

func addFlags(cmd *cobra.Command, mode reconciler.Mode) *Flags {
	f := &Flags{cmd: cmd}
	fs := cmd.Flags()

	fs.StringVarP(&f.Input, "input", "i", "", "registry file (YAML or JSON), or - for stdin")
	if !mode.ReadOnly() {
		fs.BoolVar(&f.DryRun, "dry-run", false, "compute every decision without changing the platform")
	}
	fs.DurationVar(&f.Interval, "interval", constants.DefaultInterval, "minimum delay between platform writes")
	fs.IntVar(&f.Limit, "limit", 0, "process only the first N entries (0 means all)")
	fs.IntVarP(&f.Workers, "workers", "w", constants.DefaultWorkers, "entries processed concurrently")
	fs.IntVar(&f.PageSize, "page-size", constants.DefaultPageSize, "clients per listing page")
	fs.DurationVar(&f.Timeout, "timeout", 0, "deadline for the whole run (0 means none)")
	if mode == reconciler.ModeFull || mode == reconciler.ModeCompare {
		fs.BoolVar(&f.Modules, "modules", true, "configure federal and services modules of matched clients")
	}
	fs.StringVar(&f.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile after the run")
	fs.StringVar(&f.Report, "report", "", "also write the JSON result to this file")

	_ = cmd.MarkFlagRequired("input")
	return f
}

// Options merges the flags over defaults. Only flags set on the command
// line override configured values.
func (f *Flags) Options(defaults *sync.Options, mode reconciler.Mode) []sync.Option {
	opts := []sync.Option{
		sync.WithMode(mode),
		sync.WithDryRun(defaults.DryRun),
		sync.WithModules(defaults.Modules),
		sync.WithInterval(defaults.Interval),
		sync.WithLimit(defaults.Limit),
		sync.WithWorkers(defaults.Workers),
		sync.WithPageSize(defaults.PageSize),
		sync.WithTimeout(defaults.Timeout),
	}

	if f.changed("dry-run") {
		opts = append(opts, sync.WithDryRun(f.DryRun))
	}
	if f.changed("modules") {
		opts = append(opts, sync.WithModules(f.Modules))
	}
	if f.changed("interval") {
		opts = append(opts, sync.WithInterval(f.Interval))
	}
	if f.changed("limit") {
		opts = append(opts, sync.WithLimit(f.Limit))
	}
	if f.changed("workers") {
		opts = append(opts, sync.WithWorkers(f.Workers))
	}
	if f.changed("page-size") {
		opts = append(opts, sync.WithPageSize(f.PageSize))
	}
	if f.changed("timeout") {
		opts = append(opts, sync.WithTimeout(f.Timeout))
	}
	return opts
}

func (f *Flags) changed(name string) bool {
	if f.cmd == nil {
		return false
	}
	flag := f.cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}
