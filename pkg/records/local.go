// Package records defines the two sides of a reconciliation: the locally
// maintained registry entry and the platform's open client object.
package records

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/identity"
)

// Local is one entry of the local registry. The ingestion layer produces
// it; the engine never mutates it.
type Local struct {
	Identifier            string `json:"identifier" yaml:"identifier"`
	Name                  string `json:"name" yaml:"name"`
	Taxation              string `json:"taxation" yaml:"taxation"`
	StateRegistration     string `json:"state_registration,omitempty" yaml:"state_registration,omitempty"`
	MunicipalRegistration string `json:"municipal_registration,omitempty" yaml:"municipal_registration,omitempty"`
	Email                 string `json:"email,omitempty" yaml:"email,omitempty"`
	Municipality          string `json:"municipality,omitempty" yaml:"municipality,omitempty"`
	State                 string `json:"state,omitempty" yaml:"state,omitempty"`
	ServiceLogin          string `json:"service_login,omitempty" yaml:"service_login,omitempty"`
	ServicePassword       string `json:"service_password,omitempty" yaml:"service_password,omitempty"`
}

// Key returns the canonical identifier used to match the platform's records.
func (l Local) Key() string {
	return identity.Canonicalize(l.Identifier)
}

// Validate reports a malformed record. Malformed records are skipped, never sent.
func (l Local) Validate() error {
	key := l.Key()
	if key == "" {
		return errors.NewValidationError("identifier", l.Identifier, "cannot be empty")
	}
	if len(key) != constants.IdentifierLength {
		return errors.NewValidationError("identifier", l.Identifier, "must have 14 digits")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.NewValidationError("name", l.Name, "cannot be empty")
	}
	return nil
}

// ServiceRegime reports whether the taxation label denotes a service regime.
func (l Local) ServiceRegime() bool {
	label := strings.ToLower(Fold(l.Taxation))
	return strings.Contains(label, "servico") || strings.Contains(label, "service")
}

// HasServiceCredentials reports whether both municipal portal credentials are present.
func (l Local) HasServiceCredentials() bool {
	return strings.TrimSpace(l.ServiceLogin) != "" && strings.TrimSpace(l.ServicePassword) != ""
}

// CityName returns the municipality without a trailing "/UF" suffix.
func (l Local) CityName() string {
	city, _ := splitMunicipality(l.Municipality)
	return city
}

// UF returns the state abbreviation, preferring the explicit State field.
func (l Local) UF() string {
	if s := strings.TrimSpace(l.State); s != "" {
		return strings.ToUpper(s)
	}
	_, uf := splitMunicipality(l.Municipality)
	return uf
}

func splitMunicipality(m string) (city, uf string) {
	m = strings.TrimSpace(m)
	if i := strings.LastIndex(m, "/"); i >= 0 {
		suffix := strings.TrimSpace(m[i+1:])
		if len(suffix) == 2 {
			return strings.TrimSpace(m[:i]), strings.ToUpper(suffix)
		}
	}
	return m, ""
}

// Fold removes diacritics, so "Serviços" compares equal to "Servicos".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
