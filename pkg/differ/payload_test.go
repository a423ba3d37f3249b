package differ_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/differ"
	"github.com/agentstation/regsync/pkg/records"
)

var simplesID = constants.KnownRegimeIDs[constants.RegimeSimplesNacional]

// fullRemote mimics a complete platform object already in sync with acmeLocal
// except for the name.
func fullRemote() records.Remote {
	return records.Remote{
		"id":                   "r-1",
		"document":             "12345678000199",
		"name":                 "ACME LTD",
		"taxation":             map[string]any{"name": "Simples Nacional"},
		"taxRegime":            simplesID,
		"stateRegistration":    "0",
		"emails":               []any{},
		"municipalIntegration": map[string]any{"portal": "issnet"},
		"certificate":          map[string]any{"status": "valid"},
		"address":              map[string]any{"street": "Rua A", "number": "10"},
		"tags":                 []any{"vip"},
	}
}

func TestApplyPatchOnlyChangesName(t *testing.T) {
	remote := fullRemote()
	merged := differ.ApplyPatch(remote, acmeLocal(), simplesID)

	expected := fullRemote()
	expected["name"] = "ACME LTDA"
	assert.Equal(t, expected, merged)

	// the fetched object is never modified
	assert.Equal(t, "ACME LTD", remote["name"])
}

func TestApplyPatchAuthoritativeFields(t *testing.T) {
	local := records.Local{
		Identifier:            "12345678000199",
		Name:                  "ACME LTDA",
		Taxation:              "Lucro Presumido - Serviços",
		StateRegistration:     "FALSE",
		MunicipalRegistration: "10.34.16",
		Email:                 "fiscal@acme.com",
		ServiceLogin:          "52998224725",
		ServicePassword:       "s3cret",
	}
	remote := records.Remote{
		"id":                    "r-1",
		"municipalRegistration": "1",
		"email":                 "old@acme.com",
		"unknownField":          42.0,
	}

	merged := differ.ApplyPatch(remote, local, "lp-id")

	assert.Equal(t, "lp-id", merged["taxRegime"])
	assert.Equal(t, "0", merged["stateRegistration"])
	assert.Equal(t, "103416", merged["municipalRegistration"])
	assert.Equal(t, "fiscal@acme.com", merged["email"])
	assert.Equal(t, 42.0, merged["unknownField"])

	integration := merged["municipalIntegration"].(map[string]any)
	assert.Equal(t, "103416", integration["municipalRegistration"])
	assert.Equal(t, "52998224725", integration["login"])
	assert.Equal(t, "s3cret", integration["password"])

	emails := merged["emails"].([]any)
	assert.Len(t, emails, 1)
	entry := emails[0].(map[string]any)
	assert.Equal(t, "fiscal@acme.com", entry["email"])
	assert.Equal(t, []any{map[string]any{"text": "Fiscal", "value": "fiscal"}}, entry["type"])

	// the merged object reads back as in sync
	assert.Empty(t, differ.Compare(local, merged))
	assert.Equal(t, map[string]any{"id": "lp-id", "name": constants.RegimeLucroPresumido}, merged["taxation"])
}

func TestApplyPatchSkipsCredentialsOutsideServiceRegime(t *testing.T) {
	local := records.Local{
		Name:            "ACME",
		Taxation:        "Lucro Real - Comércio",
		ServiceLogin:    "52998224725",
		ServicePassword: "x",
	}
	merged := differ.ApplyPatch(records.Remote{}, local, "")

	assert.NotContains(t, merged, "municipalIntegration")
	assert.NotContains(t, merged, "taxRegime")
	assert.Equal(t, []any{}, merged["emails"])
	assert.NotContains(t, merged, "email")
}

func TestApplyPatchConverges(t *testing.T) {
	base := func() (records.Local, records.Remote) {
		l := records.Local{
			Identifier:            "12345678000199",
			Name:                  "Padaria Boa Vista",
			Taxation:              "Lucro Presumido - Comércio",
			StateRegistration:     "10.123.456-7",
			MunicipalRegistration: "103416",
			Email:                 "fiscal@padaria.com",
			Municipality:          "Anápolis/GO",
		}
		r := records.Remote{
			"id":                   "r-1",
			"document":             "12345678000199",
			"name":                 "PADARIA BOA VISTA",
			"taxation":             map[string]any{"_id": "lp-id", "name": "Lucro Presumido"},
			"taxRegime":            "lp-id",
			"stateRegistration":    "101234567",
			"municipalIntegration": map[string]any{"municipalRegistration": "103416"},
			"emails":               []any{map[string]any{"email": "fiscal@padaria.com"}},
			"city":                 map[string]any{"name": "ANAPOLIS", "ibgeCode": 5201108.0},
		}
		return l, r
	}

	l, r := base()
	require.Empty(t, differ.Compare(l, r))

	tests := []struct {
		name     string
		mutate   func(l *records.Local, r records.Remote)
		regimeID string
	}{
		{"name", func(l *records.Local, _ records.Remote) { l.Name = "Padaria Nova" }, ""},
		{"taxation", func(l *records.Local, _ records.Remote) { l.Taxation = "Lucro Real" }, "lr-id"},
		{"plain taxation string", func(l *records.Local, r records.Remote) {
			l.Taxation = "MEI"
			r["taxation"] = "Lucro Presumido"
		}, "mei-id"},
		{"taxation missing on platform", func(_ *records.Local, r records.Remote) { delete(r, "taxation") }, "lp-id"},
		{"state registration cleared", func(l *records.Local, _ records.Remote) { l.StateRegistration = "FALSE" }, ""},
		{"municipal registration changed", func(l *records.Local, _ records.Remote) { l.MunicipalRegistration = "55.66" }, ""},
		{"municipal registration cleared", func(l *records.Local, _ records.Remote) { l.MunicipalRegistration = "" }, ""},
		{"top-level municipal registration cleared", func(l *records.Local, r records.Remote) {
			l.MunicipalRegistration = ""
			r["municipalRegistration"] = "999"
		}, ""},
		{"email changed", func(l *records.Local, _ records.Remote) { l.Email = "nfe@padaria.com" }, ""},
		{"email cleared", func(l *records.Local, r records.Remote) {
			l.Email = ""
			r["email"] = "old@padaria.com"
		}, ""},
		{"municipality", func(l *records.Local, _ records.Remote) { l.Municipality = "Goiânia/GO" }, ""},
		{"plain municipality string", func(l *records.Local, r records.Remote) {
			l.Municipality = "Goiânia"
			r["city"] = "ANAPOLIS"
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := base()
			tt.mutate(&l, r)
			require.NotEmpty(t, differ.Compare(l, r))

			merged := differ.ApplyPatch(r, l, tt.regimeID, differ.WithCityCode(5208707))
			assert.Empty(t, differ.Compare(l, merged).Strings())
		})
	}
}

func TestCompareIgnoresUnknownRegistryValues(t *testing.T) {
	local := acmeLocal()
	local.Taxation = "  "
	remote := acmeRemote()
	remote["city"] = map[string]any{"name": "CURITIBA"}

	assert.Empty(t, differ.Compare(local, remote))
}

func TestApplyPatchWritesCity(t *testing.T) {
	local := acmeLocal()
	local.Municipality = "Goiânia/GO"

	remote := fullRemote()
	remote["city"] = map[string]any{"name": "ANAPOLIS", "ibgeCode": 5201108.0, "state": "GO"}

	merged := differ.ApplyPatch(remote, local, "", differ.WithCityCode(5208707))
	assert.Equal(t, map[string]any{"name": "Goiânia", "ibgeCode": 5208707, "state": "GO"}, merged["city"])
	assert.Equal(t, 5208707, merged["ibgeCode"])

	// without a code the platform's city is kept
	kept := differ.ApplyPatch(remote, local, "")
	assert.Equal(t, remote["city"], kept["city"])
	assert.NotContains(t, kept, "ibgeCode")
}

func TestApplyPatchNilRemote(t *testing.T) {
	merged := differ.ApplyPatch(nil, acmeLocal(), simplesID)
	assert.Equal(t, "ACME LTDA", merged.Name())
	assert.Equal(t, simplesID, merged["taxRegime"])
}

func TestCreatePayload(t *testing.T) {
	local := records.Local{
		Identifier:            "12.345.678/0001-99",
		Name:                  " ACME LTDA ",
		Taxation:              "Simples Nacional - Serviços",
		MunicipalRegistration: "103416",
		Email:                 "fiscal@acme.com",
		ServiceLogin:          "52998224725",
		ServicePassword:       "s3cret",
	}
	enrichment := differ.Enrichment{IBGECode: 5201108, CNAEs: []string{"6201501"}}

	payload := differ.CreatePayload(local, simplesID, enrichment)

	assert.Equal(t, map[string]any{
		"document":              "12345678000199",
		"name":                  "ACME LTDA",
		"taxation":              simplesID,
		"email":                 "fiscal@acme.com",
		"stateRegistration":     "0",
		"municipalRegistration": "103416",
		"isActive":              true,
		"ibgeCode":              5201108,
		"cnaes":                 []string{"6201501"},
		"login":                 "52998224725",
		"password":              "s3cret",
	}, payload)
}

func TestCreatePayloadMinimal(t *testing.T) {
	payload := differ.CreatePayload(records.Local{Identifier: "12345678000199", Name: "ACME", Taxation: "MEI"}, "mei-id", differ.Enrichment{})
	assert.Equal(t, "mei-id", payload["taxation"])
	assert.NotContains(t, payload, "ibgeCode")
	assert.NotContains(t, payload, "cnaes")
	assert.NotContains(t, payload, "login")
}

func TestParseEnrichment(t *testing.T) {
	doc := map[string]any{
		"name":                "ACME LTDA",
		"city":                "ANAPOLIS",
		"mainActivity":        map[string]any{"code": "62.01-5-01"},
		"secondaryActivities": []any{"6202-3/00", map[string]any{"code": "63.11-9-00"}, map[string]any{}},
	}

	e := differ.ParseEnrichment(doc)
	assert.Equal(t, "ACME LTDA", e.Name)
	assert.Equal(t, "ANAPOLIS", e.City)
	assert.Equal(t, []string{"6201501", "6202300", "6311900"}, e.CNAEs)

	assert.Equal(t, differ.Enrichment{}, differ.ParseEnrichment(nil))
}
