// Package regime maps free-text taxation labels to the platform's regime
// identifiers.
//
// Classification is an ordered rule list evaluated top to bottom on the
// normalized label; the first matching rule decides the canonical regime.
// A Resolver then turns canonical names into platform identifiers for the
// duration of one sync run.
package regime

import (
	"strings"

	"github.com/agentstation/regsync/pkg/constants"
	"github.com/agentstation/regsync/pkg/records"
)

// Rule classifies a normalized label into a canonical regime name.
type Rule struct {
	Name      string
	Match     func(label string) bool
	Canonical string
}

// DefaultCanonical is the regime assumed when no rule matches.
const DefaultCanonical = constants.RegimeSimplesNacional

// Rules is the precedence-ordered classification list. Branches and
// tax-exempt entities inherit the default regime; "PRESUMIDO ARBITRADO"
// therefore resolves through the presumido rule before reaching arbitrado.
var Rules = []Rule{
	{Name: "branch", Match: contains("FILIAL"), Canonical: constants.RegimeSimplesNacional},
	{Name: "exempt", Match: anyOf(contains("IMUNE"), contains("ISENT")), Canonical: constants.RegimeSimplesNacional},
	{Name: "simples", Match: anyOf(contains("SIMPLES"), equals("SN")), Canonical: constants.RegimeSimplesNacional},
	{Name: "presumido", Match: anyOf(contains("PRESUMIDO"), equals("LP")), Canonical: constants.RegimeLucroPresumido},
	{Name: "real", Match: anyOf(contains("REAL"), equals("LR")), Canonical: constants.RegimeLucroReal},
	{Name: "simei", Match: contains("SIMEI"), Canonical: constants.RegimeSIMEI},
	{Name: "mei", Match: func(l string) bool { return strings.Contains(l, "MEI") && !strings.Contains(l, "SIMEI") }, Canonical: constants.RegimeMEI},
	{Name: "arbitrado", Match: contains("ARBITRADO"), Canonical: constants.RegimeLucroPresumido},
}

// Normalize uppercases a label, strips diacritics and collapses whitespace.
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToUpper(records.Fold(label))), " ")
}

// Classify returns the canonical regime for label. matched is false when
// the label fell through to DefaultCanonical.
func Classify(label string) (canonical string, matched bool) {
	n := Normalize(label)
	if n == "" {
		return DefaultCanonical, false
	}
	for _, rule := range Rules {
		if rule.Match(n) {
			return rule.Canonical, true
		}
	}
	return DefaultCanonical, false
}

// Canonical is Classify without the match flag, used when rendering a
// taxation value for comparison.
func Canonical(label string) string {
	c, _ := Classify(label)
	return c
}

func contains(keyword string) func(string) bool {
	return func(l string) bool { return strings.Contains(l, keyword) }
}

func equals(value string) func(string) bool {
	return func(l string) bool { return l == value }
}

func anyOf(preds ...func(string) bool) func(string) bool {
	return func(l string) bool {
		for _, p := range preds {
			if p(l) {
				return true
			}
		}
		return false
	}
}
