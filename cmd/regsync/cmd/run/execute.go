package run

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/regsync/cmd/application"
	"github.com/agentstation/regsync/internal/cmd/output"
	"github.com/agentstation/regsync/internal/registry"
	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/reconciler"
)

// Execute loads the registry, runs the reconciliation and prints the result.
// The error is non-nil when the run aborted or any entry failed.
func Execute(cmd *cobra.Command, app application.Application, mode reconciler.Mode, flags *Flags) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	locals, err := registry.LoadFile(flags.Input)
	if err != nil {
		return err
	}
	logger.Info().Int("records", len(locals)).Str("input", flags.Input).Str("mode", mode.String()).Msg("Registry loaded")

	syncer, err := app.Syncer()
	if err != nil {
		return err
	}
	if syncer == nil {
		return errors.NewConfigError("client", constants.ErrMsgMissingCredentials, nil)
	}

	result, runErr := syncer.Sync(ctx, locals, flags.Options(app.Defaults(), mode)...)

	if result != nil {
		if err := output.FormatResult(cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if flags.Report != "" {
			if err := writeReport(flags.Report, result); err != nil {
				logger.Error().Err(err).Str("path", flags.Report).Msg("Failed to write report")
			}
		}
	}

	metricsFile := flags.MetricsFile
	if metricsFile == "" {
		metricsFile = app.MetricsFile()
	}
	if metricsFile != "" {
		if err := syncer.Metrics().WriteToTextfile(metricsFile); err != nil {
			logger.Error().Err(err).Str("path", metricsFile).Msg("Failed to write metrics")
		}
	}

	if runErr != nil {
		return runErr
	}
	if n := result.Stats.Errors + result.Stats.ModuleErrors; n > 0 {
		return fmt.Errorf("%d of %d entries failed", n, result.Stats.Total)
	}
	return nil
}

func writeReport(path string, result any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := output.NewFormatter(output.FormatJSON).Format(f, result); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}
