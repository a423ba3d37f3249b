package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync"
	"github.com/agentstation/regsync/pkg/reconciler"
)

func newTestApp(t *testing.T, opts ...Option) *App {
	t.Helper()
	isolate(t)
	t.Setenv("LOG_OUTPUT", "discard")

	a, err := New("1.0.0", "abc123", "2025-01-01", "test", opts...)
	require.NoError(t, err)
	return a
}

func TestAppNew(t *testing.T) {
	a := newTestApp(t)

	assert.Equal(t, "1.0.0", a.Version())
	assert.Equal(t, "abc123", a.Commit())
	assert.Equal(t, "2025-01-01", a.Date())
	assert.Equal(t, "test", a.BuiltBy())
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Config())
}

func TestAppWithConfig(t *testing.T) {
	a := newTestApp(t, WithConfig(&Config{Format: "yaml", Workers: 6, Interval: time.Second, Modules: false}))

	_, err := New("dev", "", "", "", WithConfig(nil))
	require.Error(t, err)
	assert.Equal(t, "yaml", a.OutputFormat())

	defaults := a.Defaults()
	assert.Equal(t, 6, defaults.Workers)
	assert.Equal(t, time.Second, defaults.Interval)
	assert.False(t, defaults.Modules)
	assert.Equal(t, reconciler.ModeFull, defaults.Mode)
}

func TestAppClientSingleton(t *testing.T) {
	a := newTestApp(t, WithClientOptions(regsync.WithCredentials("office@example.com", "secret")))

	const goroutines = 20
	clients := make([]*regsync.Client, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := a.Client()
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	assert.NotNil(t, clients[0].Metrics(), "metrics are always recorded")

	syncer, err := a.Syncer()
	require.NoError(t, err)
	assert.Same(t, clients[0], syncer)

	require.NoError(t, a.Shutdown(context.Background()))
	c, err := a.Client()
	require.NoError(t, err)
	assert.NotSame(t, clients[0], c)
}

func TestAppClientRejectsBadURL(t *testing.T) {
	a := newTestApp(t, WithClientOptions(regsync.WithAPIURL("")))
	_, err := a.Client()
	assert.Error(t, err)
}

func TestRootCommandRegistersModes(t *testing.T) {
	a := newTestApp(t)
	root := a.createRootCommand()

	for _, name := range []string{"sync", "create", "update", "compare", "modules", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	compare, _, err := root.Find([]string{"compare"})
	require.NoError(t, err)
	assert.Nil(t, compare.Flags().Lookup("dry-run"), "compare never writes")
	assert.NotNil(t, compare.Flags().Lookup("modules"))

	create, _, err := root.Find([]string{"create"})
	require.NoError(t, err)
	assert.Nil(t, create.Flags().Lookup("modules"))

	modules, _, err := root.Find([]string{"modules"})
	require.NoError(t, err)
	assert.NotNil(t, modules.Flags().Lookup("dry-run"))
	assert.Nil(t, modules.Flags().Lookup("modules"), "modules mode always configures modules")
}

func TestVersionCommand(t *testing.T) {
	a := newTestApp(t)
	root := a.createRootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version", "-v", "--log-level", "error"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "regsync 1.0.0")
	assert.Contains(t, out.String(), "commit:   abc123")
}

func TestSetupCommandReloadsConfig(t *testing.T) {
	a := newTestApp(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: yaml\nlog_output: discard\n"), 0o600))

	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--config", path})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, path, a.Config().ConfigFile)
	assert.Equal(t, "yaml", a.OutputFormat())
}
