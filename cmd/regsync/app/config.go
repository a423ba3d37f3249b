package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/regime"
)

// EnvPrefix prefixes every regsync environment variable.
const EnvPrefix = "REGSYNC"

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Platform access
	Email       string
	Password    string
	APIURL      string
	AuthURL     string
	HTTPTimeout time.Duration
	RegimeIDs   map[string]string // Canonical regime name to platform id overrides

	// Run defaults
	Interval    time.Duration
	Workers     int
	PageSize    int
	Modules     bool
	MetricsFile string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (applied later by the commands)
//  2. Environment variables (REGSYNC_*, PLATFORM_EMAIL, PLATFORM_PASSWORD)
//  3. .env and .env.local
//  4. Config file (path, or ~/.regsync.yaml when path is empty)
//  5. Defaults
func LoadConfig(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := bindEnv(v); err != nil {
		return nil, errors.NewConfigError("env", "failed to bind environment variables", err)
	}

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(expandHome(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("file", "failed to read "+path, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".regsync")
		// A missing default config file is fine.
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Email:       v.GetString("email"),
		Password:    v.GetString("password"),
		APIURL:      v.GetString("api_url"),
		AuthURL:     v.GetString("auth_url"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		RegimeIDs:   canonicalRegimeIDs(v.GetStringMapString("regime_ids")),

		Interval:    v.GetDuration("interval"),
		Workers:     v.GetInt("workers"),
		PageSize:    v.GetInt("page_size"),
		Modules:     v.GetBool("modules"),
		MetricsFile: v.GetString("metrics_file"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", constants.DefaultAPIURL)
	v.SetDefault("auth_url", constants.DefaultAuthURL)
	v.SetDefault("http_timeout", constants.DefaultHTTPTimeout)
	v.SetDefault("interval", constants.DefaultInterval)
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("page_size", constants.DefaultPageSize)
	v.SetDefault("modules", true)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// bindEnv binds the keys that also accept unprefixed variable names.
// The first name listed wins.
func bindEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"email":      {EnvPrefix + "_EMAIL", "PLATFORM_EMAIL"},
		"password":   {EnvPrefix + "_PASSWORD", "PLATFORM_PASSWORD"},
		"log_level":  {EnvPrefix + "_LOG_LEVEL", "LOG_LEVEL"},
		"log_format": {EnvPrefix + "_LOG_FORMAT", "LOG_FORMAT"},
		"log_output": {EnvPrefix + "_LOG_OUTPUT", "LOG_OUTPUT"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

// UpdateFromFlags applies the parsed global flags, which take precedence
// over config file and environment values.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// canonicalRegimeIDs restores canonical regime names, since viper lowercases
// map keys. Unrecognized names are dropped.
func canonicalRegimeIDs(ids map[string]string) map[string]string {
	out := make(map[string]string, len(ids))
	for name, id := range ids {
		canonical, ok := regime.Classify(name)
		if !ok || strings.TrimSpace(id) == "" {
			fmt.Fprintf(os.Stderr, "Warning: ignoring regime id override for %q\n", name)
			continue
		}
		out[canonical] = strings.TrimSpace(id)
	}
	return out
}

// loadEnvFiles loads .env then .env.local. Variables already set in the
// environment are never overwritten.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
