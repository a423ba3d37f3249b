package metrics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/metrics"
)

func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metric:
		for _, metric := range f.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metric
				}
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func TestObserveRecord(t *testing.T) {
	m := metrics.New()
	m.ObserveRecord("created", 10*time.Millisecond)
	m.ObserveRecord("created", 20*time.Millisecond)
	m.ObserveRecord("error", time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m, "regsync_records_total", map[string]string{"action": "created"}))
	assert.Equal(t, 1.0, counterValue(t, m, "regsync_records_total", map[string]string{"action": "error"}))
}

func TestObserveFailure(t *testing.T) {
	m := metrics.New()
	m.ObserveFailure(&errors.TransientRequestError{Method: "PUT", Path: "/clients/1", Attempts: 4, StatusCode: 429})
	m.ObserveFailure(&errors.TransientRequestError{Method: "PUT", Path: "/clients/2", Attempts: 4, StatusCode: 502})
	m.ObserveFailure(errors.NewRequestRejectedError("POST", "/clients", 422, ""))
	m.ObserveFailure(nil)

	assert.Equal(t, 1.0, counterValue(t, m, "regsync_record_errors_total", map[string]string{"cause": "rate_limited"}))
	assert.Equal(t, 1.0, counterValue(t, m, "regsync_record_errors_total", map[string]string{"cause": "transient"}))
	assert.Equal(t, 1.0, counterValue(t, m, "regsync_record_errors_total", map[string]string{"cause": "rejected"}))
}

func TestObserveModule(t *testing.T) {
	m := metrics.New()
	m.ObserveModule("federal", true, nil)
	m.ObserveModule("federal", false, nil)
	m.ObserveModule("services", true, errors.New("boom"))

	assert.Equal(t, 1.0, counterValue(t, m, "regsync_module_decisions_total", map[string]string{"module": "federal", "state": "enabled"}))
	assert.Equal(t, 1.0, counterValue(t, m, "regsync_module_decisions_total", map[string]string{"module": "federal", "state": "disabled"}))
	assert.Equal(t, 1.0, counterValue(t, m, "regsync_module_decisions_total", map[string]string{"module": "services", "state": "error"}))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveRecord("created", time.Second)
		m.ObserveModule("federal", true, nil)
		m.ObserveFailure(errors.New("boom"))
		m.SetRemoteClients(3)
		m.ObserveRun(time.Second, time.Now())
	})
	assert.NoError(t, m.WriteToTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, m.Registry())
}

func TestWriteToTextfile(t *testing.T) {
	m := metrics.New()
	m.SetRemoteClients(42)
	m.ObserveRun(3*time.Second, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "regsync.prom")
	require.NoError(t, m.WriteToTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "regsync_remote_clients 42")
	assert.Contains(t, string(data), "regsync_run_duration_seconds 3")
}

func TestWriteToTextfileMissingDir(t *testing.T) {
	err := metrics.New().WriteToTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)

	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}
