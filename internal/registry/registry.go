// Package registry loads the local registry from a YAML or JSON file.
//
// A file holds either a list of records or a document with a "records" key.
// Identifiers are canonicalized on load and the first occurrence of a
// duplicated identifier wins.
package registry

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/errors"
	"github.com/agentstation/regsync/pkg/identity"
	"github.com/agentstation/regsync/pkg/logging"
	"github.com/agentstation/regsync/pkg/records"
)

// Stdin is the path that reads the registry from standard input.
const Stdin = "-"

type document struct {
	Records []records.Local `yaml:"records"`
}

// LoadFile reads the registry at path, or standard input for Stdin.
func LoadFile(path string) ([]records.Local, error) {
	if path == Stdin {
		return Load(os.Stdin, "stdin")
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close() //nolint:errcheck

	return Load(f, path)
}

// Load decodes the registry from r. name is used in error messages.
func Load(r io.Reader, name string) ([]records.Local, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	locals, err := decode(data, name)
	if err != nil {
		return nil, err
	}
	return Normalize(locals), nil
}

// YAML is a superset of JSON, so one decoder covers both formats.
func decode(data []byte, name string) ([]records.Local, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var locals []records.Local
	if err := yaml.Unmarshal(data, &locals); err == nil {
		return locals, nil
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParseError(format(name), name, "expected a list of records or a records document", err)
	}
	return doc.Records, nil
}

// Normalize canonicalizes identifiers and numeric portal logins, trims text
// fields and drops later duplicates. Records whose identifier has no digits
// are kept so the reconciler can report them as skipped. Identifiers and
// logins with wrong check digits are kept with a warning.
func Normalize(locals []records.Local) []records.Local {
	seen := make(map[string]struct{}, len(locals))
	out := make([]records.Local, 0, len(locals))
	for _, l := range locals {
		l = trim(l)
		if key := l.Key(); key != "" {
			if _, dup := seen[key]; dup {
				logging.Warn().Str("identifier", key).Str("name", l.Name).Msg("Dropping duplicate registry entry")
				continue
			}
			seen[key] = struct{}{}
			l.Identifier = key
			if len(key) == constants.IdentifierLength && !identity.Valid(key) {
				logging.Warn().Str("identifier", key).Str("name", l.Name).Msg("Identifier check digits do not match")
			}
		}

		var numeric bool
		l.ServiceLogin, numeric = normalizeLogin(l.ServiceLogin)
		if numeric && !identity.ValidCPF(l.ServiceLogin) {
			logging.Warn().
				Str("identifier", l.Identifier).
				Str("service_login", logging.Mask(l.ServiceLogin)).
				Msg("Service login is not a valid personal identifier")
		}
		out = append(out, l)
	}
	return out
}

// normalizeLogin reduces a masked personal identifier such as
// 529.982.247-25 to its digits. Logins containing letters are only trimmed.
func normalizeLogin(raw string) (login string, numeric bool) {
	login = strings.TrimSpace(raw)
	if strings.IndexFunc(login, unicode.IsLetter) >= 0 {
		return login, false
	}
	digits := identity.Canonicalize(login)
	if digits == "" {
		return login, false
	}
	return digits, true
}

func trim(l records.Local) records.Local {
	l.Identifier = strings.TrimSpace(l.Identifier)
	l.Name = strings.TrimSpace(l.Name)
	l.Taxation = strings.TrimSpace(l.Taxation)
	l.StateRegistration = strings.TrimSpace(l.StateRegistration)
	l.MunicipalRegistration = strings.TrimSpace(l.MunicipalRegistration)
	l.Email = strings.TrimSpace(l.Email)
	l.Municipality = strings.TrimSpace(l.Municipality)
	l.State = strings.TrimSpace(l.State)
	return l
}

func format(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return "json"
	}
	return "yaml"
}
