// Package identity canonicalizes business and personal tax identifiers.
//
// The canonical form of an identifier is its digit sequence. It is the join
// key between local records and the platform's client list, so both sides
// must go through Canonicalize before comparison.
package identity

import (
	"strings"

	"github.com/agentstation/regsync/pkg/constants"
)

// Canonicalize strips every non-digit character from raw.
func Canonicalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format renders a business identifier as 00.000.000/0000-00.
// Input that does not carry exactly 14 digits is returned unchanged.
func Format(raw string) string {
	d := Canonicalize(raw)
	if len(d) != constants.IdentifierLength {
		return raw
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}

// Valid reports whether raw is a business identifier with correct check digits.
// Identifiers made of a single repeated digit are rejected.
func Valid(raw string) bool {
	d := Canonicalize(raw)
	if len(d) != constants.IdentifierLength || repeated(d) {
		return false
	}
	first := checkDigit(d[:12], []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	second := checkDigit(d[:12]+string(rune('0'+first)), []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2})
	return int(d[12]-'0') == first && int(d[13]-'0') == second
}

// ValidCPF reports whether raw is a personal identifier with correct check digits.
func ValidCPF(raw string) bool {
	d := Canonicalize(raw)
	if len(d) != constants.PersonIdentifierLength || repeated(d) {
		return false
	}
	first := checkDigit(d[:9], []int{10, 9, 8, 7, 6, 5, 4, 3, 2})
	second := checkDigit(d[:10], []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2})
	return int(d[9]-'0') == first && int(d[10]-'0') == second
}

// checkDigit computes a mod-11 check digit.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func repeated(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}
