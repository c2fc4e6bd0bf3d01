package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hexeval/internal/ir"
)

// endToEndProgram is
//
//	a(X) :- not b(X), p(X).
//	b(Z) :- not a(Z), p(Z).
//	p(X) :- q(X).
//	q(a) v q("b").
func endToEndProgram() *ir.Program {
	return &ir.Program{Rules: []*ir.Rule{
		ir.NewRule([]ir.Atom{atom("a", "X")}, ir.Not(atom("b", "X")), ir.Pos(atom("p", "X"))),
		ir.NewRule([]ir.Atom{atom("b", "Z")}, ir.Not(atom("a", "Z")), ir.Pos(atom("p", "Z"))),
		ir.NewRule([]ir.Atom{atom("p", "X")}, ir.Pos(atom("q", "X"))),
		ir.NewRule([]ir.Atom{atom("q", "a"), atom("q", `"b"`)}),
	}}
}

func mustLookup(t *testing.T, g *NodeGraph, a ir.BodyAtom) *AtomNode {
	t.Helper()
	n, ok := g.Lookup(a)
	require.True(t, ok, "no node for %s", a)
	return n
}

func TestBuildRuleEdges(t *testing.T) {
	g := Build(endToEndProgram())
	require.NoError(t, g.CheckMirrored())

	a := mustLookup(t, g, atom("a", "X"))
	b := mustLookup(t, g, atom("b", "X"))
	p := mustLookup(t, g, atom("p", "X"))

	assert.Contains(t, a.Preceding(), Dependency{Rule: 0, Target: b.ID(), Type: NegPreceding})
	assert.Contains(t, a.Preceding(), Dependency{Rule: 0, Target: p.ID(), Type: Preceding})
	assert.Equal(t, []int{0}, a.Rules())
	assert.True(t, p.IsHead())
	assert.True(t, p.IsBody(), "p(X) is shared between rule 0 body and rule 2 head")
	assert.Equal(t, []int{2}, p.Rules())
}

func TestBuildDisjunctiveEdges(t *testing.T) {
	g := Build(endToEndProgram())
	qa := mustLookup(t, g, atom("q", "a"))
	qb := mustLookup(t, g, atom("q", `"b"`))

	assert.Contains(t, qa.Succeeding(), Dependency{Rule: 3, Target: qb.ID(), Type: Disjunctive})
	assert.Contains(t, qb.Succeeding(), Dependency{Rule: 3, Target: qa.ID(), Type: Disjunctive})
	assert.Equal(t, []int{3}, qa.Rules())
}

func TestBuildUnifyingEdgesAcrossRules(t *testing.T) {
	g := Build(endToEndProgram())
	aHead := mustLookup(t, g, atom("a", "X"))
	aBody := mustLookup(t, g, atom("a", "Z"))
	qBody := mustLookup(t, g, atom("q", "X"))
	qa := mustLookup(t, g, atom("q", "a"))

	assert.Contains(t, aHead.Succeeding(), Dependency{Rule: NoRule, Target: aBody.ID(), Type: Unifying})
	assert.Contains(t, qBody.Preceding(), Dependency{Rule: NoRule, Target: qa.ID(), Type: Unifying})
}

func TestBuildConstraintGetsHeadNode(t *testing.T) {
	prog := &ir.Program{Rules: []*ir.Rule{
		ir.NewConstraint(ir.Pos(atom("a", "a"))),
	}}
	g := Build(prog)

	c := mustLookup(t, g, ir.ConstraintAtom(0))
	assert.True(t, c.IsHead())
	assert.Equal(t, []int{0}, c.Rules())
	require.Len(t, c.Preceding(), 1)
	assert.Equal(t, Preceding, c.Preceding()[0].Type)
}

func TestBuildSkipsBuiltins(t *testing.T) {
	prog := &ir.Program{Rules: []*ir.Rule{
		ir.NewRule([]ir.Atom{atom("p", "X")}, ir.Pos(atom("q", "X")), ir.Pos(ir.BuiltinAtom{Op: ir.OpNe, Left: ir.Var("X"), Right: ir.Const("a")})),
	}}
	g := Build(prog)
	assert.Equal(t, 2, g.Len())
}

func TestBuildAggregateEdges(t *testing.T) {
	agg := ir.AggregateAtom{
		Function: ir.AggCount,
		Terms:    []ir.Term{ir.Var("X")},
		Body:     []ir.Literal{ir.Pos(atom("p", "X")), ir.Not(atom("r", "X"))},
		Op:       ir.OpGe,
		Bound:    ir.Int(2),
	}
	prog := &ir.Program{Rules: []*ir.Rule{ir.NewRule([]ir.Atom{atom("many")}, ir.Pos(agg))}}
	g := Build(prog)

	aggNode := mustLookup(t, g, agg)
	p := mustLookup(t, g, atom("p", "X"))
	r := mustLookup(t, g, atom("r", "X"))
	assert.Contains(t, aggNode.Preceding(), Dependency{Rule: 0, Target: p.ID(), Type: Preceding})
	assert.Contains(t, aggNode.Preceding(), Dependency{Rule: 0, Target: r.ID(), Type: NegPreceding})
	require.NoError(t, g.CheckMirrored())
}

func TestBuildExternalEdges(t *testing.T) {
	diff := ir.ExternalAtom{
		Function:   "diff",
		Inputs:     []ir.Term{ir.Const("d"), ir.Const("q")},
		Outputs:    []ir.Term{ir.Var("X")},
		InputKinds: []ir.InputKind{ir.InputPredicate, ir.InputPredicate},
	}
	prog := &ir.Program{Rules: []*ir.Rule{
		ir.NewRule([]ir.Atom{atom("p", "X")}, ir.Pos(atom("d", "X")), ir.Pos(diff)),
		ir.NewRule([]ir.Atom{atom("q", "a")}),
	}}
	g := Build(prog)

	ext := mustLookup(t, g, diff)
	q := mustLookup(t, g, atom("q", "a"))
	p := mustLookup(t, g, atom("p", "X"))
	assert.Contains(t, ext.Preceding(), Dependency{Rule: NoRule, Target: q.ID(), Type: External})
	assert.Contains(t, ext.Succeeding(), Dependency{Rule: 0, Target: p.ID(), Type: Preceding})
	assert.Len(t, g.Rules(), 2, "ground input needs no auxiliary rule")
	require.NoError(t, g.CheckMirrored())
}

func TestBuildAuxiliaryInputRule(t *testing.T) {
	concat := ir.ExternalAtom{
		Function: "concat",
		Inputs:   []ir.Term{ir.Var("X"), ir.Const("s")},
		Outputs:  []ir.Term{ir.Var("Y")},
	}
	prog := &ir.Program{Rules: []*ir.Rule{
		ir.NewRule([]ir.Atom{atom("r", "Y")},
			ir.Pos(atom("n", "X")),
			ir.Not(atom("skip", "X")),
			ir.Pos(concat),
			ir.Pos(ir.BuiltinAtom{Op: ir.OpNe, Left: ir.Var("X"), Right: ir.Const("z")}),
			ir.Pos(ir.BuiltinAtom{Op: ir.OpNe, Left: ir.Var("Y"), Right: ir.Const("z")}),
		),
	}}
	g := Build(prog)

	require.Len(t, g.Rules(), 2)
	assert.Equal(t, "__aux_0(X,s) :- n(X), X != z.", g.Rule(1).String())
	assert.Equal(t, 1, len(prog.Rules), "input program untouched")
	assert.Empty(t, prog.Rules[0].Externals()[0].AuxPredicate)

	exts := g.Rule(0).Externals()
	require.Len(t, exts, 1)
	assert.Equal(t, "__aux_0", exts[0].AuxPredicate)

	aux := mustLookup(t, g, atom("__aux_0", "X", "s"))
	ext := mustLookup(t, g, exts[0])
	assert.True(t, aux.IsAuxiliary())
	assert.Contains(t, ext.Preceding(), Dependency{Rule: NoRule, Target: aux.ID(), Type: ExternalAux})
	require.NoError(t, g.CheckMirrored())
}
