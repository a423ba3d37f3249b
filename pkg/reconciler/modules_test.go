package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/reconciler"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestCertificateValid(t *testing.T) {
	tests := []struct {
		name string
		cert map[string]any
		want bool
	}{
		{"absent", nil, false},
		{"empty", map[string]any{}, false},
		{"valid status", map[string]any{"status": "valid"}, true},
		{"active status", map[string]any{"status": "active", "validity": "2000-01-01"}, true},
		{"future validity", map[string]any{"validity": "2026-01-01T00:00:00Z"}, true},
		{"future expiration date", map[string]any{"status": "pending", "expirationDate": "2025-12-31"}, true},
		{"past validity", map[string]any{"validity": "2025-05-31T23:59:59Z"}, false},
		{"expired status with past date", map[string]any{"status": "expired", "validity": "2024-01-01"}, false},
		{"unparseable", map[string]any{"validity": "next year"}, false},
		{"non-string validity", map[string]any{"validity": 20260101.0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reconciler.CertificateValid(tt.cert, now))
		})
	}
}

func TestModulesDecide(t *testing.T) {
	m, err := reconciler.NewModules(newFakePlatform(), reconciler.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	client := records.Remote{"id": "r-1", "certificate": map[string]any{"status": "valid"}}
	assert.Equal(t, reconciler.Decision{Federal: true, Services: true}, m.Decide(acme(), client))

	local := acme()
	local.Taxation = "Lucro Real - Comércio"
	assert.Equal(t, reconciler.Decision{}, m.Decide(local, records.Remote{"id": "r-1"}))
}

func TestModulesApplyWritesBothModules(t *testing.T) {
	platform := newFakePlatform()
	gate := &countingGate{}
	m, err := reconciler.NewModules(platform, reconciler.WithGate(gate), reconciler.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	client := records.Remote{"id": "r-1", "digitalCertificate": map[string]any{"validity": "2020-01-01"}}
	out, err := m.Apply(context.Background(), acme(), client)
	require.NoError(t, err)

	assert.True(t, out.Applied)
	assert.True(t, out.Success)
	assert.Equal(t, []string{"r-1/federal", "r-1/services"}, platform.modules)
	assert.Equal(t, false, platform.settings["federal"]["enabled"])
	assert.Equal(t, false, platform.settings["federal"]["buscarNFeEmitidas"])
	assert.Equal(t, true, platform.settings["services"]["gerarIss"])
	assert.Equal(t, true, platform.settings["services"]["ativarDctfweb"])
	assert.Equal(t, 2, gate.waits)
}

func TestModulesApplyDryRun(t *testing.T) {
	platform := newFakePlatform()
	m, err := reconciler.NewModules(platform, reconciler.WithDryRun(true))
	require.NoError(t, err)

	out, err := m.Apply(context.Background(), acme(), records.Remote{"id": "r-1"})
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.True(t, out.Success)
	assert.Zero(t, platform.mutations())
}

func TestModulesApplyFailures(t *testing.T) {
	platform := newFakePlatform()
	platform.moduleErr = errors.NewRequestRejectedError("PUT", "/clients/r-1/modules/federal", 400, "")
	m, err := reconciler.NewModules(platform)
	require.NoError(t, err)

	out, err := m.Apply(context.Background(), acme(), records.Remote{"id": "r-1"})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.True(t, errors.IsRejected(out.Err))

	platform.moduleErr = errors.NewAuthenticationError("", "bearer", "expired", nil)
	_, err = m.Apply(context.Background(), acme(), records.Remote{"id": "r-1"})
	assert.True(t, errors.IsAuthentication(err))

	out, err = m.Apply(context.Background(), acme(), records.Remote{})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Error(t, out.Err)
}

func TestModuleSettingsAreComplete(t *testing.T) {
	assert.Len(t, reconciler.FederalSettings(true), 4)
	assert.Len(t, reconciler.ServicesSettings(false), 3)
}
