// Package app wires configuration, logging and the platform client for the
// regsync CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/regsync"
	"github.com/agentstation/regsync/cmd/application"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/metrics"
	pkgsync "github.com/agentstation/regsync/pkg/sync"
)

// App holds the CLI's configuration, logger and lazily created client.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger
	flags  globalFlags

	mu     sync.Mutex
	client *regsync.Client
	extra  []regsync.Option
}

// Option configures an App.
type Option func(*App) error

// WithClientOptions appends options used when the client is created.
func WithClientOptions(opts ...regsync.Option) Option {
	return func(a *App) error {
		a.extra = append(a.extra, opts...)
		return nil
	}
}

// WithConfig replaces the loaded configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		if config == nil {
			return errors.NewValidationError("config", nil, "cannot be nil")
		}
		a.config = config
		return nil
	}
}

// New creates an App, loading configuration from the environment and the
// default config file.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	a := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	a.config = config

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	a.setLogger(NewLogger(a.config))
	return a, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string { return a.config.Format }

// Defaults returns run options seeded from configuration.
func (a *App) Defaults() *pkgsync.Options {
	o := pkgsync.Defaults()
	o.Interval = a.config.Interval
	o.Modules = a.config.Modules
	if a.config.Workers > 0 {
		o.Workers = a.config.Workers
	}
	if a.config.PageSize > 0 {
		o.PageSize = a.config.PageSize
	}
	return o
}

// MetricsFile returns the configured metrics textfile path.
func (a *App) MetricsFile() string { return a.config.MetricsFile }

// Syncer returns the platform client, creating it on first use.
func (a *App) Syncer() (application.Syncer, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Client returns the concrete platform client. Metrics are always recorded
// so --metrics-file can write them.
func (a *App) Client() (*regsync.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	if a.config.Email == "" || a.config.Password == "" {
		logging.Warn().Msg("Platform credentials are not configured")
	}

	opts := []regsync.Option{
		regsync.WithCredentials(a.config.Email, a.config.Password),
		regsync.WithMetrics(metrics.New()),
	}
	if a.config.APIURL != "" {
		opts = append(opts, regsync.WithAPIURL(a.config.APIURL))
	}
	if a.config.AuthURL != "" {
		opts = append(opts, regsync.WithAuthURL(a.config.AuthURL))
	}
	if a.config.HTTPTimeout > 0 {
		opts = append(opts, regsync.WithTimeout(a.config.HTTPTimeout))
	}
	if len(a.config.RegimeIDs) > 0 {
		opts = append(opts, regsync.WithKnownRegimeIDs(a.config.RegimeIDs))
	}
	opts = append(opts, a.extra...)

	client, err := regsync.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = client
	return client, nil
}

// Shutdown drops the client and its session. It is safe to call more than once.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.client = nil
	a.logger.Debug().Msg("Shutdown complete")
	return nil
}

// setLogger installs logger as both the app logger and the package default,
// so engine code logging through context falls back to it.
func (a *App) setLogger(logger zerolog.Logger) {
	logging.SetDefault(logger)
	a.logger = logging.Default()
}

var _ application.Application = (*App)(nil)
