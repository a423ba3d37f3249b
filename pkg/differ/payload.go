package differ

import (
	"strings"

	"github.com/agentstation/regsync/pkg/identity"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/regime"
)

// PatchOption adds optional writes to ApplyPatch.
type PatchOption func(*patch)

type patch struct {
	cityCode int
}

// WithCityCode writes the registry's municipality with its IBGE code. A
// non-positive code leaves the platform's city untouched.
func WithCityCode(code int) PatchOption {
	return func(p *patch) {
		p.cityCode = code
	}
}

// ApplyPatch merges the registry-owned fields of local into a deep copy of
// the full platform object. Attributes the registry does not own are left
// exactly as fetched, so the result is safe for a whole-object write.
// Comparing local with the result reports no changes.
func ApplyPatch(remote records.Remote, local records.Local, regimeID string, opts ...PatchOption) records.Remote {
	var p patch
	for _, opt := range opts {
		opt(&p)
	}

	out := remote.Clone()
	if out == nil {
		out = records.Remote{}
	}

	if name := strings.TrimSpace(local.Name); name != "" {
		out["name"] = name
	}

	if regimeID != "" {
		out["taxRegime"] = regimeID
		if label := strings.TrimSpace(local.Taxation); label != "" {
			setTaxation(out, regimeID, regime.Canonical(label))
		}
	}

	patchMunicipalIntegration(out, local)

	out["stateRegistration"] = RenderStateRegistration(local.StateRegistration)

	email := strings.TrimSpace(local.Email)
	out["emails"] = emailList(email)
	if _, ok := out["email"]; ok {
		out["email"] = email
	}

	if city := strings.TrimSpace(local.CityName()); city != "" && p.cityCode > 0 {
		setCity(out, city, p.cityCode)
	}

	return out
}

// setTaxation mirrors the new regime into the embedded taxation reference
// so the merged object reads back as the regime it was given.
func setTaxation(out records.Remote, regimeID, canonical string) {
	switch t := out["taxation"].(type) {
	case map[string]any:
		t["name"] = canonical
		for _, key := range []string{"id", "_id"} {
			if _, ok := t[key]; ok {
				t[key] = regimeID
			}
		}
	case string:
		out["taxation"] = canonical
	default:
		out["taxation"] = map[string]any{"id": regimeID, "name": canonical}
	}
}

// patchMunicipalIntegration writes the municipal registration, clearing it
// when the registry has none, and the service portal credentials.
func patchMunicipalIntegration(out records.Remote, local records.Local) {
	integration, existed := out["municipalIntegration"].(map[string]any)
	if integration == nil {
		integration = map[string]any{}
	}

	im := identity.Canonicalize(local.MunicipalRegistration)
	if _, ok := integration["municipalRegistration"]; ok || im != "" {
		integration["municipalRegistration"] = im
	}
	if _, ok := out["municipalRegistration"]; ok {
		out["municipalRegistration"] = im
	}

	if local.ServiceRegime() && local.HasServiceCredentials() {
		integration["login"] = strings.TrimSpace(local.ServiceLogin)
		integration["password"] = strings.TrimSpace(local.ServicePassword)
	}
	if existed || len(integration) > 0 {
		out["municipalIntegration"] = integration
	}
}

// setCity points the client at the registry's municipality.
func setCity(out records.Remote, city string, code int) {
	key := "city"
	if _, ok := out[key]; !ok {
		if _, ok := out["municipality"]; ok {
			key = "municipality"
		}
	}
	switch t := out[key].(type) {
	case map[string]any:
		t["name"] = city
		t["ibgeCode"] = code
	case string:
		out[key] = city
	default:
		out[key] = map[string]any{"name": city, "ibgeCode": code}
	}
	out["ibgeCode"] = code
}

// emailList builds the platform's email list: one fiscal entry, or none.
func emailList(email string) []any {
	if email == "" {
		return []any{}
	}
	return []any{
		map[string]any{
			"email": email,
			"type": []any{
				map[string]any{"text": "Fiscal", "value": "fiscal"},
			},
		},
	}
}

// Enrichment carries registry-office data used when creating a client.
type Enrichment struct {
	IBGECode int
	CNAEs    []string
	Name     string
	City     string
}

// ParseEnrichment extracts activity codes and fallbacks from a document
// lookup result. A nil document yields an empty Enrichment.
func ParseEnrichment(doc map[string]any) Enrichment {
	var e Enrichment
	if doc == nil {
		return e
	}

	e.Name = firstString(doc, "name", "razao_social")
	e.City = firstString(doc, "city", "municipio")

	add := func(v any) {
		code := ""
		switch t := v.(type) {
		case string:
			code = t
		case map[string]any:
			code, _ = t["code"].(string)
		}
		if digits := identity.Canonicalize(code); digits != "" {
			e.CNAEs = append(e.CNAEs, digits)
		}
	}

	if primary := firstValue(doc, "mainActivity", "cnae_fiscal"); primary != nil {
		add(primary)
	}
	if secondary, ok := firstValue(doc, "secondaryActivities", "cnaes_secundarios").([]any); ok {
		for _, item := range secondary {
			add(item)
		}
	}
	return e
}

// CreatePayload builds the minimal object used to register a new client.
func CreatePayload(local records.Local, regimeID string, enrichment Enrichment) map[string]any {
	name := strings.TrimSpace(local.Name)
	if name == "" {
		name = enrichment.Name
	}

	payload := map[string]any{
		"document":              local.Key(),
		"name":                  name,
		"taxation":              regimeID,
		"email":                 strings.TrimSpace(local.Email),
		"stateRegistration":     RenderStateRegistration(local.StateRegistration),
		"municipalRegistration": identity.Canonicalize(local.MunicipalRegistration),
		"isActive":              true,
	}
	if enrichment.IBGECode > 0 {
		payload["ibgeCode"] = enrichment.IBGECode
	}
	if len(enrichment.CNAEs) > 0 {
		payload["cnaes"] = enrichment.CNAEs
	}
	if local.ServiceRegime() && local.HasServiceCredentials() {
		payload["login"] = strings.TrimSpace(local.ServiceLogin)
		payload["password"] = strings.TrimSpace(local.ServicePassword)
	}
	return payload
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
