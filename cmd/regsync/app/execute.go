package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/regsync/cmd/regsync/cmd/run"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/reconciler"
)

// globalFlags receives the persistent flags before they are merged into Config.
type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
}

// Execute runs the CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "regsync",
		Short:   "Reconcile the local business registry with the client platform",
		Version: a.version,
		Long: `regsync keeps the platform's client records in line with the local
registry of business entities.

For each registry entry it registers missing clients, updates clients whose
tracked fields drifted, and leaves matching clients alone. Matched clients
then get their federal and services modules configured.

Credentials come from PLATFORM_EMAIL and PLATFORM_PASSWORD (or REGSYNC_EMAIL
and REGSYNC_PASSWORD), a .env file, or ~/.regsync.yaml.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.configFile, "config", "", "config file (default is $HOME/.regsync.yaml)")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.flags.quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.BoolVar(&a.flags.noColor, "no-color", false, "disable colored output")
	flags.StringVarP(&a.flags.format, "format", "o", "", "output format: table, wide, json, yaml")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("regsync {{.Version}}\n")
	a.registerCommands(rootCmd)
	return rootCmd
}

// setupCommand reloads configuration when --config is given, applies the
// global flags and rebuilds the logger before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if a.flags.configFile != "" {
		config, err := LoadConfig(a.flags.configFile)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(a.flags.verbose, a.flags.quiet, a.flags.noColor, a.flags.format, a.flags.logLevel)

	a.setLogger(NewLogger(a.config))
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	if a.config.ConfigFile != "" {
		a.logger.Debug().Str("config", a.config.ConfigFile).Msg("Loaded config file")
	}
	return nil
}

func (a *App) registerCommands(rootCmd *cobra.Command) {
	for _, mode := range reconciler.Modes {
		rootCmd.AddCommand(run.NewCommand(a, mode))
	}
	rootCmd.AddCommand(a.newVersionCommand())
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("regsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:   %s\n", a.commit)
				cmd.Printf("  built:    %s\n", a.date)
				cmd.Printf("  built by: %s\n", a.builtBy)
			}
		},
	}
}

// ExitOnError prints err and exits with status 1.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
