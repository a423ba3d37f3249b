// Package application provides the application interface for regsync commands.
//
// Commands accept an Application instead of the concrete app, so they can be
// tested with a Mock:
//
//	mock := &application.Mock{
//	    SyncerFunc: func() (application.Syncer, error) {
//	        return fakeSyncer, nil
//	    },
//	}
//	cmd := run.NewCommand(mock, reconciler.ModeFull)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/regsync/pkg/metrics"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/sync"
)

// Syncer reconciles a registry against the platform.
// *regsync.Client implements it.
type Syncer interface {
	Sync(ctx context.Context, locals []records.Local, opts ...sync.Option) (*sync.Result, error)
	Metrics() *metrics.Metrics
}

// Application provides what commands need from the running app.
// All methods must be safe for concurrent access.
type Application interface {
	// Syncer returns the platform client, creating it lazily from the
	// loaded configuration.
	Syncer() (Syncer, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, wide, json, yaml).
	OutputFormat() string

	// Defaults returns the run options taken from configuration. Command
	// flags override them.
	Defaults() *sync.Options

	// MetricsFile returns the configured Prometheus textfile path, if any.
	MetricsFile() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
