package differ_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/differ"
	"github.com/agentstation/regsync/pkg/records"
)

func acmeLocal() records.Local {
	return records.Local{
		Identifier: "12.345.678/0001-99",
		Name:       "ACME LTDA",
		Taxation:   "Simples Nacional - Serviços",
	}
}

func acmeRemote() records.Remote {
	return records.Remote{
		"id":       "r-1",
		"document": "12345678000199",
		"name":     "ACME LTDA",
		"taxation": map[string]any{"name": "Simples Nacional"},
	}
}

func TestCompareEquivalentRecords(t *testing.T) {
	changes := differ.Compare(acmeLocal(), acmeRemote())
	assert.Empty(t, changes)
	assert.False(t, changes.HasChanges())
}

func TestCompareNameChange(t *testing.T) {
	remote := acmeRemote()
	remote["name"] = "ACME LTD"

	changes := differ.Compare(acmeLocal(), remote)
	require.Len(t, changes, 1)
	assert.Equal(t, []string{"name: 'ACME LTD' → 'ACME LTDA'"}, changes.Strings())
	assert.Equal(t, differ.ChangeTypeUpdate, changes[0].Type)
}

func TestCompareSingleFieldDifferences(t *testing.T) {
	base := func() (records.Local, records.Remote) {
		l := records.Local{
			Identifier:            "12345678000199",
			Name:                  "Padaria Boa Vista",
			Taxation:              "Lucro Presumido - Comércio",
			StateRegistration:     "10.123.456-7",
			MunicipalRegistration: "103416",
			Email:                 "Fiscal@Padaria.com ",
			Municipality:          "Anápolis/GO",
		}
		r := records.Remote{
			"document":              "12345678000199",
			"name":                  " PADARIA BOA VISTA",
			"taxation":              "Lucro Presumido",
			"stateRegistration":     "101234567",
			"municipalRegistration": "103.416",
			"emails":                []any{map[string]any{"email": "fiscal@padaria.com"}},
			"city":                  map[string]any{"name": "ANAPOLIS"},
		}
		return l, r
	}

	l, r := base()
	require.Empty(t, differ.Compare(l, r))

	tests := []struct {
		name   string
		mutate func(l *records.Local, r records.Remote)
		path   string
	}{
		{"name", func(l *records.Local, _ records.Remote) { l.Name = "Padaria Nova" }, differ.FieldName},
		{"taxation", func(l *records.Local, _ records.Remote) { l.Taxation = "Lucro Real" }, differ.FieldTaxation},
		{"state registration", func(l *records.Local, _ records.Remote) { l.StateRegistration = "FALSE" }, differ.FieldStateRegistration},
		{"municipal registration", func(_ *records.Local, r records.Remote) { r["municipalRegistration"] = "999" }, differ.FieldMunicipalRegistration},
		{"email", func(l *records.Local, _ records.Remote) { l.Email = "" }, differ.FieldEmail},
		{"municipality", func(_ *records.Local, r records.Remote) { r["city"] = "GOIANIA" }, differ.FieldMunicipality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, r := base()
			tt.mutate(&l, r)
			changes := differ.Compare(l, r)
			require.Len(t, changes, 1)
			assert.Equal(t, tt.path, changes[0].Path)
		})
	}
}

func TestCompareFieldOrder(t *testing.T) {
	local := records.Local{
		Identifier:   "12345678000199",
		Name:         "B",
		Taxation:     "Lucro Real",
		Email:        "b@b.com",
		Municipality: "CURITIBA",
	}
	remote := records.Remote{"name": "A", "taxation": "MEI", "email": "a@a.com", "city": "LONDRINA", "stateRegistration": "5"}

	changes := differ.Compare(local, remote)
	assert.Equal(t, []string{
		differ.FieldName,
		differ.FieldTaxation,
		differ.FieldStateRegistration,
		differ.FieldEmail,
		differ.FieldMunicipality,
	}, changes.Paths())
	assert.Equal(t, "taxation: 'MEI' → 'Lucro Real'", changes[1].String())
	assert.Equal(t, "state_registration: '5' → '0'", changes[2].String())
	assert.Equal(t, differ.ChangeTypeUpdate, changes[2].Type)

	local.Email = ""
	changes = differ.Compare(local, remote)
	require.True(t, changes.Has(differ.FieldEmail))
	assert.Equal(t, differ.ChangeTypeRemove, changes[3].Type)
}

func TestStateRegistrationSentinel(t *testing.T) {
	for _, raw := range []string{"", "  ", "FALSE", "false", "ISENTO", "0", "000"} {
		assert.Equal(t, constants.StateRegistrationAbsent, differ.RenderStateRegistration(raw), "raw %q", raw)
	}
	assert.Equal(t, "101234567", differ.RenderStateRegistration("10.123.456-7"))
	assert.Equal(t, "12345", differ.RenderStateRegistration("0012345"))

	// blank on one side and FALSE on the other are equivalent
	local := acmeLocal()
	local.StateRegistration = "FALSE"
	remote := acmeRemote()
	remote["stateRegistration"] = ""
	assert.Empty(t, differ.Compare(local, remote))
}

func TestCompareMissingTaxation(t *testing.T) {
	remote := acmeRemote()
	delete(remote, "taxation")

	changes := differ.Compare(acmeLocal(), remote)
	require.Len(t, changes, 1)
	assert.Equal(t, differ.ChangeTypeAdd, changes[0].Type)
	assert.Equal(t, constants.RegimeSimplesNacional, changes[0].NewValue)
}

func TestWithIgnoredFields(t *testing.T) {
	remote := acmeRemote()
	remote["name"] = "OTHER"
	remote["email"] = "x@y.z"

	d := differ.New(differ.WithIgnoredFields(differ.FieldName))
	changes := d.Compare(acmeLocal(), remote)
	assert.Equal(t, []string{differ.FieldEmail}, changes.Paths())
}

func TestWithRegimeRenderer(t *testing.T) {
	d := differ.New(differ.WithRegimeRenderer(func(label string) string { return label }))
	changes := d.Compare(acmeLocal(), acmeRemote())
	assert.True(t, changes.Has(differ.FieldTaxation))
}
