package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
)

// isolate points HOME at an empty directory so no user config is read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"PLATFORM_EMAIL", "PLATFORM_PASSWORD", "REGSYNC_EMAIL", "REGSYNC_PASSWORD", "REGSYNC_CONFIG", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultAPIURL, config.APIURL)
	assert.Equal(t, constants.DefaultAuthURL, config.AuthURL)
	assert.Equal(t, constants.DefaultInterval, config.Interval)
	assert.Equal(t, constants.DefaultWorkers, config.Workers)
	assert.Equal(t, constants.DefaultPageSize, config.PageSize)
	assert.True(t, config.Modules)
	assert.Equal(t, "auto", config.LogFormat)
	assert.Empty(t, config.ConfigFile)
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("PLATFORM_EMAIL", "office@example.com")
	t.Setenv("PLATFORM_PASSWORD", "hunter2")
	t.Setenv("REGSYNC_INTERVAL", "250ms")
	t.Setenv("REGSYNC_WORKERS", "4")
	t.Setenv("REGSYNC_API_URL", "http://localhost:9999/api")

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "office@example.com", config.Email)
	assert.Equal(t, "hunter2", config.Password)
	assert.Equal(t, 250*time.Millisecond, config.Interval)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, "http://localhost:9999/api", config.APIURL)
}

func TestLoadConfigPrefixedCredentialsWin(t *testing.T) {
	isolate(t)
	t.Setenv("PLATFORM_EMAIL", "plain@example.com")
	t.Setenv("REGSYNC_EMAIL", "prefixed@example.com")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed@example.com", config.Email)
}

func TestLoadConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "regsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
email: file@example.com
workers: 3
modules: false
interval: 2s
regime_ids:
  Simples Nacional: custom-simples
  Unknown Regime: ignored
`), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, "file@example.com", config.Email)
	assert.Equal(t, 3, config.Workers)
	assert.False(t, config.Modules)
	assert.Equal(t, 2*time.Second, config.Interval)
	assert.Equal(t, map[string]string{constants.RegimeSimplesNacional: "custom-simples"}, config.RegimeIDs)
}

func TestLoadConfigDefaultFile(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, ".regsync.yaml"), []byte("page_size: 50\n"), 0o600))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 50, config.PageSize)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	home := isolate(t)

	_, err := LoadConfig(filepath.Join(home, "missing.yaml"))
	require.Error(t, err)
	var configErr *errors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "json", LogLevel: "warn"}
	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "warn", config.LogLevel)

	config.UpdateFromFlags(false, false, false, "yaml", "debug")
	assert.Equal(t, "yaml", config.Format)
	assert.Equal(t, "debug", config.LogLevel)
}

func TestExpandHome(t *testing.T) {
	home := isolate(t)
	assert.Equal(t, filepath.Join(home, "cfg.yaml"), expandHome("~/cfg.yaml"))
	assert.Equal(t, "/etc/regsync.yaml", expandHome("/etc/regsync.yaml"))
}
