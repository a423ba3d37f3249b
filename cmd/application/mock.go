package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/regsync/pkg/sync"
)

// Mock implements Application for tests. A nil function field returns a
// zero or default value.
type Mock struct {
	SyncerFunc       func() (Syncer, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	DefaultsFunc     func() *sync.Options
	MetricsFileFunc  func() string
	VersionFunc      func() string
}

// Syncer returns the mock syncer or nil.
func (m *Mock) Syncer() (Syncer, error) {
	if m.SyncerFunc != nil {
		return m.SyncerFunc()
	}
	return nil, nil
}

// Logger returns the mock logger or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns the mock format or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Defaults returns the mock options or sync.Defaults.
func (m *Mock) Defaults() *sync.Options {
	if m.DefaultsFunc != nil {
		return m.DefaultsFunc()
	}
	return sync.Defaults()
}

// MetricsFile returns the mock path or "".
func (m *Mock) MetricsFile() string {
	if m.MetricsFileFunc != nil {
		return m.MetricsFileFunc()
	}
	return ""
}

// Version returns the mock version or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }

var _ Application = (*Mock)(nil)
