// Package differ compares a local registry record with its platform
// counterpart and builds the objects written back to the platform.
package differ

import (
	"fmt"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates the platform lacks a value the registry has.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates both sides hold different values.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates the registry no longer has a value the platform holds.
	ChangeTypeRemove ChangeType = "remove"
)

// Tracked field paths, in comparison order.
const (
	FieldName                  = "name"
	FieldTaxation              = "taxation"
	FieldStateRegistration     = "state_registration"
	FieldMunicipalRegistration = "municipal_registration"
	FieldEmail                 = "email"
	FieldMunicipality          = "municipality"
)

// Fields lists every tracked field in the order Compare reports them.
var Fields = []string{
	FieldName,
	FieldTaxation,
	FieldStateRegistration,
	FieldMunicipalRegistration,
	FieldEmail,
	FieldMunicipality,
}

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`           // Field path (e.g., "state_registration")
	OldValue string     `json:"old_value" yaml:"old_value"` // Platform value, canonicalized
	NewValue string     `json:"new_value" yaml:"new_value"` // Registry value, canonicalized
	Type     ChangeType `json:"type" yaml:"type"`
}

// String renders the change as "path: 'old' → 'new'".
func (c FieldChange) String() string {
	return fmt.Sprintf("%s: '%s' → '%s'", c.Path, c.OldValue, c.NewValue)
}

// Changes is an ordered list of field changes for one record.
type Changes []FieldChange

// HasChanges reports whether any field differs.
func (c Changes) HasChanges() bool {
	return len(c) > 0
}

// Has reports whether path is among the changes.
func (c Changes) Has(path string) bool {
	for _, ch := range c {
		if ch.Path == path {
			return true
		}
	}
	return false
}

// Without returns the changes other than path.
func (c Changes) Without(path string) Changes {
	out := Changes{}
	for _, ch := range c {
		if ch.Path != path {
			out = append(out, ch)
		}
	}
	return out
}

// Paths returns the changed field paths in order.
func (c Changes) Paths() []string {
	paths := make([]string, len(c))
	for i, ch := range c {
		paths[i] = ch.Path
	}
	return paths
}

// Strings renders every change.
func (c Changes) Strings() []string {
	out := make([]string, len(c))
	for i, ch := range c {
		out[i] = ch.String()
	}
	return out
}

// String joins the rendered changes with "; ".
func (c Changes) String() string {
	return strings.Join(c.Strings(), "; ")
}
