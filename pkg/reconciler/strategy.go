package reconciler

import (
	"strings"

	"github.com/agentstation/regsync/pkg/errors"
)

// Mode restricts which actions a run may take.
type Mode string

const (
	// ModeFull creates unmatched records and updates matched ones.
	ModeFull Mode = "full"
	// ModeCreate only registers records the platform does not have.
	ModeCreate Mode = "create"
	// ModeUpdate only updates records the platform already has.
	ModeUpdate Mode = "update"
	// ModeCompare reports differences without writing anything.
	ModeCompare Mode = "compare"
	// ModeModules leaves client records alone and only configures the
	// modules of clients the platform already has.
	ModeModules Mode = "modules"
)

// Modes lists every supported mode.
var Modes = []Mode{ModeFull, ModeCreate, ModeUpdate, ModeCompare, ModeModules}

// String returns the mode name.
func (m Mode) String() string {
	return string(m)
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// AllowsCreate reports whether unmatched records are registered.
func (m Mode) AllowsCreate() bool {
	return m == ModeFull || m == ModeCreate || m == ModeCompare
}

// AllowsUpdate reports whether matched records are compared and updated.
func (m Mode) AllowsUpdate() bool {
	return m == ModeFull || m == ModeUpdate || m == ModeCompare
}

// ModulesOnly reports whether the record phase is skipped in favor of the
// module phase.
func (m Mode) ModulesOnly() bool {
	return m == ModeModules
}

// ReadOnly reports whether the mode forbids every mutation.
func (m Mode) ReadOnly() bool {
	return m == ModeCompare
}

// ParseMode converts a user-supplied name into a Mode. Blank means full.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeFull, nil
	}
	m := Mode(s)
	if !m.Valid() {
		return "", errors.NewValidationError("mode", s, "must be one of full, create, update, compare, modules")
	}
	return m, nil
}
