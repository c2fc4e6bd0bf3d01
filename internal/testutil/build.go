// Package testutil holds deterministic helpers and builders shared by
// tests across packages.
package testutil

import (
	"fmt"

	"github.com/roach88/hexeval/internal/ir"
)

// MustInterpretation parses ground atoms. It panics on error.
func MustInterpretation(atoms ...string) ir.Interpretation {
	i, err := ir.ParseInterpretation(atoms...)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return i
}

// MustRule parses a rule in program syntax. It panics on error.
func MustRule(s string) *ir.Rule {
	r, err := ir.ParseRule(s)
	if err != nil {
		panic(fmt.Sprintf("testutil: %v", err))
	}
	return r
}

// MustProgram builds a program from ground facts and rules. External atoms
// are left unresolved.
func MustProgram(facts []string, rules ...string) *ir.Program {
	p := &ir.Program{Facts: MustInterpretation(facts...).Atoms()}
	for _, s := range rules {
		p.Rules = append(p.Rules, MustRule(s))
	}
	return p
}

// Strings renders models as sorted atom lists.
func Strings(models []ir.Interpretation) [][]string {
	out := make([][]string, len(models))
	for i, m := range models {
		out[i] = m.Strings()
	}
	return out
}
