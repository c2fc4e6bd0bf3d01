package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/hexeval/internal/component"
	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/ir"
)

// CycleWarning describes a strongly connected part of a program's
// dependency graph and how it will be evaluated.
//
// Cycles are warnings, not errors: guess-and-check cycles are legal but
// can be expensive, and fixpoint cycles may diverge when a plugin keeps
// inventing values.
type CycleWarning struct {
	Atoms   []string `json:"atoms"`   // node atoms of the cycle, in node order
	Kind    string   `json:"kind"`    // evaluation kind: ordinary, fixpoint or guess-check
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// AnalyzeCycles reports every cycle of prog's dependency graph. prog should
// be resolved, otherwise nonmonotonic externals are not recognized.
//
// A cycle through external atoms is a "warning" when it needs guess and
// check and "info" when fixpoint iteration suffices. A cycle without
// external atoms is "info" when it passes through negation or disjunction
// and not reported otherwise.
//
// A program without such cycles returns an empty list.
func AnalyzeCycles(prog *ir.Program) []CycleWarning {
	g := depgraph.Build(prog)
	warnings := []CycleWarning{}

	for _, scc := range depgraph.NewFinder().StrongComponents(g.Nodes()) {
		kind := component.Classify(scc)
		atoms := make([]string, len(scc))
		for i, n := range scc {
			atoms[i] = n.Atom().String()
		}
		path := strings.Join(atoms, ", ")

		switch kind {
		case component.KindGuessCheck:
			warnings = append(warnings, CycleWarning{
				Atoms:   atoms,
				Kind:    kind.String(),
				Message: fmt.Sprintf("cycle through external atoms needs guess and check: %s", path),
				Level:   "warning",
			})
		case component.KindFixpoint:
			warnings = append(warnings, CycleWarning{
				Atoms:   atoms,
				Kind:    kind.String(),
				Message: fmt.Sprintf("monotone cycle through external atoms is iterated to a fixpoint: %s", path),
				Level:   "info",
			})
		default:
			if nonmonotonicCycle(scc) {
				warnings = append(warnings, CycleWarning{
					Atoms:   atoms,
					Kind:    kind.String(),
					Message: fmt.Sprintf("cycle through negation or disjunction: %s", path),
					Level:   "info",
				})
			}
		}
	}
	return warnings
}

func nonmonotonicCycle(scc []*depgraph.AtomNode) bool {
	members := make(map[depgraph.NodeID]bool, len(scc))
	for _, n := range scc {
		members[n.ID()] = true
	}
	for _, n := range scc {
		for _, d := range n.Preceding() {
			if members[d.Target] && (d.Type == depgraph.NegPreceding || d.Type == depgraph.Disjunctive) {
				return true
			}
		}
	}
	return false
}
