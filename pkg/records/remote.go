package records

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/regsync/pkg/identity"
)

// Remote is a client object as returned by the platform. It is kept as an
// open attribute map so that fields this package does not know about
// survive a read-merge-write cycle untouched.
type Remote map[string]any

// ID returns the platform-assigned identifier (id or _id).
func (r Remote) ID() string {
	if s := r.str("id"); s != "" {
		return s
	}
	return r.str("_id")
}

// Document returns the raw business identifier (document or cnpj).
func (r Remote) Document() string {
	if s := r.str("document"); s != "" {
		return s
	}
	return r.str("cnpj")
}

// Key returns the canonical business identifier.
func (r Remote) Key() string {
	return identity.Canonicalize(r.Document())
}

// Name returns the display name.
func (r Remote) Name() string {
	return r.str("name")
}

// TaxationName returns the taxation label. The platform sends it either as
// an embedded object with a name or as a plain string.
func (r Remote) TaxationName() string {
	for _, key := range []string{"taxation", "taxRegime"} {
		if s := embeddedName(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// StateRegistration returns the raw state registration.
func (r Remote) StateRegistration() string {
	return r.str("stateRegistration")
}

// MunicipalRegistration returns the municipal registration, either top-level
// or nested under municipalIntegration.
func (r Remote) MunicipalRegistration() string {
	if s := r.str("municipalRegistration"); s != "" {
		return s
	}
	if mi, ok := r["municipalIntegration"].(map[string]any); ok {
		return scalar(mi["municipalRegistration"])
	}
	return ""
}

// Email returns the contact email, falling back to the first emails entry.
func (r Remote) Email() string {
	if s := r.str("email"); s != "" {
		return s
	}
	list, ok := r["emails"].([]any)
	if !ok {
		return ""
	}
	for _, item := range list {
		switch v := item.(type) {
		case map[string]any:
			if s := scalar(v["email"]); s != "" {
				return s
			}
		case string:
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// CityName returns the municipality name from an embedded city object or string.
func (r Remote) CityName() string {
	for _, key := range []string{"city", "municipality"} {
		if s := embeddedName(r[key]); s != "" {
			return s
		}
	}
	return ""
}

// Certificate returns the digital certificate block, or nil when absent.
func (r Remote) Certificate() map[string]any {
	for _, key := range []string{"certificate", "digitalCertificate"} {
		if c, ok := r[key].(map[string]any); ok {
			return c
		}
	}
	return nil
}

// Clone returns a deep copy, so a merge never aliases the source object.
func (r Remote) Clone() Remote {
	if r == nil {
		return nil
	}
	return Remote(cloneMap(r))
}

func (r Remote) str(key string) string {
	return scalar(r[key])
}

func embeddedName(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if s := scalar(t["name"]); s != "" {
			return s
		}
		return scalar(t["description"])
	default:
		return scalar(v)
	}
}

// scalar renders JSON scalars as strings. Numbers decoded into float64 keep
// their integer form so registrations like 12345 do not become 12345.0.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	case json.Number:
		return t.String()
	case int, int64:
		return fmt.Sprintf("%d", t)
	default:
		return ""
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Remote:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneMap(item)
		}
		return out
	default:
		return v
	}
}

// String returns a short description for logs.
func (r Remote) String() string {
	return fmt.Sprintf("%s (%s)", strings.TrimSpace(r.Name()), r.ID())
}
