// Package metrics records reconciliation counters on a private Prometheus
// registry. A one-shot CLI run has no scrape endpoint, so the registry is
// written to a node-exporter textfile at the end of the run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agentstation/regsync/pkg/errors"
)

// Metrics provides observability for reconciliation runs. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Record outcomes by action
	RecordOutcome *prometheus.CounterVec

	// Per-record processing latency by action
	RecordLatency *prometheus.HistogramVec

	// Failed records by error cause
	RecordErrors *prometheus.CounterVec

	// Module decisions by module and state
	ModuleDecision *prometheus.CounterVec

	// Platform clients seen when building the index
	RemoteClients prometheus.Gauge

	// Whole-run duration and completion time
	RunDuration prometheus.Gauge
	LastRun     prometheus.Gauge
}

// New creates a Metrics instance with every metric registered on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RecordOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_records_total",
			Help: "Total reconciled records by action",
		}, []string{"action"}), // action: created, updated, no_change, skipped, error

		RecordLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regsync_record_duration_seconds",
			Help:    "Duration of one record reconciliation by action",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"action"}),

		RecordErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_record_errors_total",
			Help: "Failed records by error cause",
		}, []string{"cause"}), // cause: transient, rate_limited, rejected, validation, not_found, authentication, canceled, other

		ModuleDecision: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regsync_module_decisions_total",
			Help: "Module decisions by module and resulting state",
		}, []string{"module", "state"}), // state: enabled, disabled, error

		RemoteClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "regsync_remote_clients",
			Help: "Number of platform clients indexed at the start of the last run",
		}),

		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "regsync_run_duration_seconds",
			Help: "Duration of the last reconciliation run",
		}),

		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "regsync_last_run_timestamp_seconds",
			Help: "Unix time the last reconciliation run finished",
		}),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRecord records one record outcome and its latency.
func (m *Metrics) ObserveRecord(action string, d time.Duration) {
	if m != nil {
		m.RecordOutcome.WithLabelValues(action).Inc()
		m.RecordLatency.WithLabelValues(action).Observe(d.Seconds())
	}
}

// ObserveFailure records the cause of a failed record.
func (m *Metrics) ObserveFailure(err error) {
	if m != nil && err != nil {
		m.RecordErrors.WithLabelValues(errors.Cause(err)).Inc()
	}
}

// ObserveModule records one module decision.
func (m *Metrics) ObserveModule(module string, enabled bool, err error) {
	if m == nil {
		return
	}
	state := "disabled"
	switch {
	case err != nil:
		state = "error"
	case enabled:
		state = "enabled"
	}
	m.ModuleDecision.WithLabelValues(module, state).Inc()
}

// SetRemoteClients records the size of the platform index.
func (m *Metrics) SetRemoteClients(n int) {
	if m != nil {
		m.RemoteClients.Set(float64(n))
	}
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(d time.Duration, finished time.Time) {
	if m != nil {
		m.RunDuration.Set(d.Seconds())
		m.LastRun.Set(float64(finished.Unix()))
	}
}

// WriteToTextfile writes every metric in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
