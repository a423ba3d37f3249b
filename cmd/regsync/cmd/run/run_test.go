package run

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/cmd/application"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/metrics"
	"github.com/agentstation/regsync/pkg/reconciler"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/sync"
)

const registryYAML = `
- identifier: "12.345.678/0001-95"
  name: ACME LTDA
  taxation: Simples Nacional
- identifier: "11222333000181"
  name: BETA SA
  taxation: Lucro Real
`

type fakeSyncer struct {
	options *sync.Options
	locals  []records.Local
	action  reconciler.Action
	err     error
	metrics *metrics.Metrics
}

func (f *fakeSyncer) Sync(_ context.Context, locals []records.Local, opts ...sync.Option) (*sync.Result, error) {
	f.options = sync.NewOptions(opts...)
	f.locals = locals

	action := f.action
	if action == "" {
		action = reconciler.ActionNoChange
	}
	result := &sync.Result{RunID: "run-1", Mode: f.options.Mode, DryRun: f.options.DryRun}
	for _, l := range locals {
		o := reconciler.Outcome{Identifier: l.Key(), Name: l.Name, Action: action, Success: action != reconciler.ActionError}
		result.Outcomes = append(result.Outcomes, o)
		result.Stats.Record(o)
	}
	f.metrics.ObserveRun(time.Second, time.Unix(1700000000, 0))
	return result, f.err
}

func (f *fakeSyncer) Metrics() *metrics.Metrics { return f.metrics }

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registryYAML), 0o600))
	return path
}

func execute(t *testing.T, app application.Application, mode reconciler.Mode, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app, mode)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mockApp(syncer application.Syncer, format string) *application.Mock {
	return &application.Mock{
		SyncerFunc:       func() (application.Syncer, error) { return syncer, nil },
		OutputFormatFunc: func() string { return format },
	}
}

func TestSyncCommandAppliesFlags(t *testing.T) {
	syncer := &fakeSyncer{}
	out, err := execute(t, mockApp(syncer, "json"), reconciler.ModeFull,
		"-i", writeRegistry(t), "--dry-run", "--workers", "3", "--limit", "1", "--interval", "0s", "--modules=false")
	require.NoError(t, err)

	require.NotNil(t, syncer.options)
	assert.Equal(t, reconciler.ModeFull, syncer.options.Mode)
	assert.True(t, syncer.options.DryRun)
	assert.Equal(t, 3, syncer.options.Workers)
	assert.Equal(t, 1, syncer.options.Limit)
	assert.Zero(t, syncer.options.Interval)
	assert.False(t, syncer.options.Modules)
	assert.Len(t, syncer.locals, 2)
	assert.Equal(t, "12345678000195", syncer.locals[0].Identifier)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
}

func TestFlagsKeepConfiguredDefaults(t *testing.T) {
	syncer := &fakeSyncer{}
	app := mockApp(syncer, "json")
	app.DefaultsFunc = func() *sync.Options {
		o := sync.Defaults()
		o.Workers = 5
		o.Interval = 3 * time.Second
		return o
	}

	_, err := execute(t, app, reconciler.ModeUpdate, "-i", writeRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, reconciler.ModeUpdate, syncer.options.Mode)
	assert.Equal(t, 5, syncer.options.Workers)
	assert.Equal(t, 3*time.Second, syncer.options.Interval)
	assert.False(t, syncer.options.DryRun)
}

func TestCompareCommandIsReadOnly(t *testing.T) {
	syncer := &fakeSyncer{}
	_, err := execute(t, mockApp(syncer, "table"), reconciler.ModeCompare, "-i", writeRegistry(t))
	require.NoError(t, err)
	assert.True(t, syncer.options.DryRun)

	_, err = execute(t, mockApp(syncer, "table"), reconciler.ModeCompare, "-i", writeRegistry(t), "--dry-run")
	assert.Error(t, err, "compare has no --dry-run flag")
}

func TestTableOutput(t *testing.T) {
	out, err := execute(t, mockApp(&fakeSyncer{}, "table"), reconciler.ModeFull, "-i", writeRegistry(t))
	require.NoError(t, err)
	assert.Contains(t, out, "ACME LTDA")
	assert.Contains(t, out, "2 records: 0 created, 0 updated, 2 unchanged")
}

func TestFailedRecordsFailTheCommand(t *testing.T) {
	_, err := execute(t, mockApp(&fakeSyncer{action: reconciler.ActionError}, "json"), reconciler.ModeFull, "-i", writeRegistry(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2 entries failed")
}

func TestAbortedRunStillPrintsResult(t *testing.T) {
	syncer := &fakeSyncer{action: reconciler.ActionSkipped, err: errors.NewAuthenticationError("", "password", "invalid credentials", nil)}
	out, err := execute(t, mockApp(syncer, "json"), reconciler.ModeFull, "-i", writeRegistry(t))
	require.Error(t, err)
	assert.True(t, errors.IsAuthentication(err))
	assert.Contains(t, out, `"run_id"`)
}

func TestReportAndMetricsFiles(t *testing.T) {
	dir := t.TempDir()
	report := filepath.Join(dir, "report.json")
	metricsPath := filepath.Join(dir, "regsync.prom")

	syncer := &fakeSyncer{metrics: metrics.New()}
	_, err := execute(t, mockApp(syncer, "yaml"), reconciler.ModeFull,
		"-i", writeRegistry(t), "--report", report, "--metrics-file", metricsPath)
	require.NoError(t, err)

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id": "run-1"`)

	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "regsync_last_run_timestamp_seconds 1.7e+09")
}

func TestMetricsFileFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configured.prom")
	app := mockApp(&fakeSyncer{metrics: metrics.New()}, "json")
	app.MetricsFileFunc = func() string { return path }

	_, err := execute(t, app, reconciler.ModeFull, "-i", writeRegistry(t))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestExecuteErrors(t *testing.T) {
	_, err := execute(t, mockApp(&fakeSyncer{}, "json"), reconciler.ModeFull)
	assert.Error(t, err, "--input is required")

	_, err = execute(t, mockApp(&fakeSyncer{}, "json"), reconciler.ModeFull, "-i", filepath.Join(t.TempDir(), "missing.yaml"))
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	_, err = execute(t, mockApp(&fakeSyncer{}, "xml"), reconciler.ModeFull, "-i", writeRegistry(t))
	assert.True(t, errors.IsValidationError(err))

	_, err = execute(t, &application.Mock{}, reconciler.ModeFull, "-i", writeRegistry(t))
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestNewCommandNames(t *testing.T) {
	names := map[reconciler.Mode]string{
		reconciler.ModeFull:    "sync",
		reconciler.ModeCreate:  "create",
		reconciler.ModeUpdate:  "update",
		reconciler.ModeCompare: "compare",
		reconciler.ModeModules: "modules",
	}
	for mode, name := range names {
		assert.Equal(t, name, NewCommand(&application.Mock{}, mode).Name())
	}
	assert.Panics(t, func() { NewCommand(&application.Mock{}, reconciler.Mode("bogus")) })
}
