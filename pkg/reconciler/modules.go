package reconciler

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/remote"
)

// ModulePlatform writes module settings for a client.
type ModulePlatform interface {
	PutModule(ctx context.Context, clientID, module string, settings remote.ModuleSettings) error
}

// Modules decides and applies the federal and services module settings of
// matched clients.
type Modules struct {
	platform ModulePlatform
	opts     *options
}

// NewModules creates the module phase. It honors WithGate, WithDryRun,
// WithMode and WithClock.
func NewModules(platform ModulePlatform, opts ...Option) (*Modules, error) {
	if platform == nil {
		return nil, errors.NewValidationError("platform", nil, "cannot be nil")
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Modules{platform: platform, opts: o}, nil
}

// Decide computes the desired module state. Federal needs a valid digital
// certificate on the platform record; services follows the registry's
// taxation label.
func (m *Modules) Decide(local records.Local, remote records.Remote) Decision {
	return Decision{
		Federal:  CertificateValid(remote.Certificate(), m.opts.now()),
		Services: local.ServiceRegime(),
	}
}

// Apply writes both modules' complete settings. The writes are idempotent,
// so a partial failure is repaired by the next run.
func (m *Modules) Apply(ctx context.Context, local records.Local, client records.Remote) (ModuleOutcome, error) {
	ctx = logging.WithFields(ctx, map[string]any{
		"identifier": local.Key(),
		"operation":  "modules",
	})
	logger := logging.FromContext(ctx)

	out := ModuleOutcome{
		Identifier: local.Key(),
		RemoteID:   client.ID(),
		Decision:   m.Decide(local, client),
	}

	if out.RemoteID == "" {
		out.Err = errors.NewValidationError("id", nil, "platform record has no identifier")
		out.Message = out.Err.Error()
		return out, nil
	}

	if m.opts.dryRun {
		out.Success = true
		out.Message = "would configure modules"
		logger.Info().
			Bool("federal", out.Decision.Federal).
			Bool("services", out.Decision.Services).
			Msg(out.Message)
		return out, nil
	}

	writes := []struct {
		module   string
		settings remote.ModuleSettings
	}{
		{constants.ModuleFederal, FederalSettings(out.Decision.Federal)},
		{constants.ModuleServices, ServicesSettings(out.Decision.Services)},
	}
	for _, w := range writes {
		if err := m.opts.gate.Wait(ctx); err != nil {
			return m.failed(out, err)
		}
		if err := m.platform.PutModule(context.WithoutCancel(ctx), out.RemoteID, w.module, w.settings); err != nil {
			return m.failed(out, err)
		}
	}

	out.Applied = true
	out.Success = true
	out.Message = "modules configured"
	logger.Info().
		Bool("federal", out.Decision.Federal).
		Bool("services", out.Decision.Services).
		Msg(out.Message)
	return out, nil
}

func (m *Modules) failed(out ModuleOutcome, err error) (ModuleOutcome, error) {
	out.Err = err
	out.Message = err.Error()
	if errors.IsAuthentication(err) {
		return out, err
	}
	return out, nil
}

// FederalSettings is the complete federal module settings object.
func FederalSettings(enabled bool) remote.ModuleSettings {
	return remote.ModuleSettings{
		"enabled":                                enabled,
		"aplicarCorrecaoSubstituicoesTributarias": enabled,
		"aplicarCorrecaoPisCofins":               enabled,
		"buscarNFeEmitidas":                      enabled,
	}
}

// ServicesSettings is the complete services module settings object.
func ServicesSettings(enabled bool) remote.ModuleSettings {
	return remote.ModuleSettings{
		"enabled":       enabled,
		"gerarIss":      enabled,
		"ativarDctfweb": enabled,
	}
}

// CertificateValid reports whether a certificate block is usable at now.
// A valid or active status wins; otherwise the expiry date decides, and an
// unparseable date counts as expired.
func CertificateValid(cert map[string]any, now time.Time) bool {
	if len(cert) == 0 {
		return false
	}
	status, _ := cert["status"].(string)
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "valid", "active":
		return true
	}

	for _, key := range []string{"validity", "expirationDate"} {
		raw, ok := cert[key].(string)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		expires, err := parseExpiry(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		return expires.After(now)
	}
	return false
}

var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseExpiry(raw string) (time.Time, error) {
	var err error
	for _, layout := range expiryLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.NewParseError("time", "", "unrecognized certificate expiry "+raw, err)
}
