package differ

import (
	"strings"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/identity"
	"github.com/agentstation/regsync/pkg/records"
	"github.com/agentstation/regsync/pkg/regime"
)

// Differ compares registry records against platform records field by
// field, after reducing both sides to a canonical form per field.
type Differ struct {
	ignoreFields map[string]bool
	renderRegime func(string) string
}

// New creates a Differ with default settings.
func New(opts ...Option) *Differ {
	d := &Differ{
		ignoreFields: make(map[string]bool),
		renderRegime: regime.Canonical,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var defaultDiffer = New()

// Compare reports the differences between local and remote using the
// default Differ.
func Compare(local records.Local, remote records.Remote) Changes {
	return defaultDiffer.Compare(local, remote)
}

// Compare returns one FieldChange per tracked field whose canonical forms
// differ, in the order of Fields. The result is empty iff the records are
// equivalent. A blank taxation label or municipality in the registry means
// the registry does not know the value, so that field is not compared.
func (d *Differ) Compare(local records.Local, remote records.Remote) Changes {
	pairs := []struct {
		path      string
		old, want string
		known     bool
	}{
		{FieldName, RenderName(remote.Name()), RenderName(local.Name), true},
		{FieldTaxation, d.taxation(remote.TaxationName()), d.taxation(local.Taxation), strings.TrimSpace(local.Taxation) != ""},
		{FieldStateRegistration, RenderStateRegistration(remote.StateRegistration()), RenderStateRegistration(local.StateRegistration), true},
		{FieldMunicipalRegistration, identity.Canonicalize(remote.MunicipalRegistration()), identity.Canonicalize(local.MunicipalRegistration), true},
		{FieldEmail, RenderEmail(remote.Email()), RenderEmail(local.Email), true},
		{FieldMunicipality, RenderCity(remote.CityName()), RenderCity(local.CityName()), strings.TrimSpace(local.CityName()) != ""},
	}

	changes := Changes{}
	for _, p := range pairs {
		if !p.known || d.ignoreFields[p.path] || p.old == p.want {
			continue
		}
		changes = append(changes, FieldChange{
			Path:     p.path,
			OldValue: p.old,
			NewValue: p.want,
			Type:     changeType(p.old, p.want),
		})
	}
	return changes
}

func (d *Differ) taxation(label string) string {
	if strings.TrimSpace(label) == "" {
		return ""
	}
	return d.renderRegime(label)
}

func changeType(old, want string) ChangeType {
	switch {
	case old == "":
		return ChangeTypeAdd
	case want == "":
		return ChangeTypeRemove
	default:
		return ChangeTypeUpdate
	}
}

// RenderName trims and uppercases a display name.
func RenderName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// RenderEmail trims and lowercases an address; blank means absent.
func RenderEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RenderCity uppercases a municipality name and strips its diacritics.
func RenderCity(city string) string {
	return strings.ToUpper(strings.TrimSpace(records.Fold(city)))
}

// RenderStateRegistration reduces a state registration to its numeric
// value. Blank, "FALSE" and digit-free values all become the "0" sentinel,
// on both sides of a comparison and in every payload.
func RenderStateRegistration(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "false") {
		return constants.StateRegistrationAbsent
	}
	digits := strings.TrimLeft(identity.Canonicalize(raw), "0")
	if digits == "" {
		return constants.StateRegistrationAbsent
	}
	return digits
}
