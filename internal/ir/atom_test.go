package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in   string
		want Term
	}{
		{"X", Var("X")},
		{"_Y", Var("_Y")},
		{"a", Const("a")},
		{"foo", Const("foo")},
		{`"b"`, Str("b")},
		{"42", Int(42)},
		{"-7", Int(-7)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTerm(tt.in))
		})
	}
}

func TestTermString(t *testing.T) {
	assert.Equal(t, `"b"`, Str("b").String())
	assert.Equal(t, "a", Const("a").String())
	assert.Equal(t, "12", Int(12).String())
	assert.Equal(t, "X", Var("X").String())
}

func TestCompareTermsKindOrder(t *testing.T) {
	assert.Negative(t, CompareTerms(Int(100), Const("a")))
	assert.Negative(t, CompareTerms(Const("z"), Str("a")))
	assert.Negative(t, CompareTerms(Str("z"), Var("A")))
	assert.Negative(t, CompareTerms(Int(1), Int(2)))
	assert.Zero(t, CompareTerms(Const("a"), Const("a")))
}

func TestAtomString(t *testing.T) {
	assert.Equal(t, `q("b")`, ParseAtom("q", `"b"`).String())
	assert.Equal(t, "-p(a,X)", ParseAtom("-p", "a", "X").String())
	assert.Equal(t, "p", ParseAtom("p").String())
}

func TestAtomIsGround(t *testing.T) {
	assert.True(t, ParseAtom("p", "a", "1").IsGround())
	assert.False(t, ParseAtom("p", "a", "X").IsGround())
}

func TestUnify(t *testing.T) {
	tests := []struct {
		name string
		a, b Atom
		want bool
	}{
		{"variable and constant", ParseAtom("p", "X"), ParseAtom("p", "a"), true},
		{"different constants", ParseAtom("p", "a"), ParseAtom("p", `"b"`), false},
		{"different predicates", ParseAtom("p", "X"), ParseAtom("q", "X"), false},
		{"different arity", ParseAtom("p", "X"), ParseAtom("p", "X", "Y"), false},
		{"strong negation differs", ParseAtom("p", "X"), ParseAtom("-p", "a"), false},
		{"repeated variable conflict", ParseAtom("p", "X", "X"), ParseAtom("p", "a", "b"), false},
		{"repeated variable ok", ParseAtom("p", "X", "X"), ParseAtom("p", "a", "a"), true},
		{"variables standardized apart", ParseAtom("p", "X", "a"), ParseAtom("p", "b", "X"), true},
		{"chained bindings conflict", ParseAtom("p", "X", "X", "a"), ParseAtom("p", "Y", "b", "Y"), false},
		{"string vs constant", ParseAtom("p", "b"), ParseAtom("p", `"b"`), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unify(tt.a, tt.b))
			assert.Equal(t, tt.want, Unify(tt.b, tt.a))
		})
	}
}

func TestMatch(t *testing.T) {
	s, ok := Match(ParseAtom("p", "X", "Y"), ParseAtom("p", "a", "1"), nil)
	require.True(t, ok)
	assert.Equal(t, Const("a"), s["X"])
	assert.Equal(t, Int(1), s["Y"])

	_, ok = Match(ParseAtom("p", "X", "X"), ParseAtom("p", "a", "b"), nil)
	assert.False(t, ok)

	base := Substitution{"X": Const("a")}
	_, ok = Match(ParseAtom("p", "X"), ParseAtom("p", "b"), base)
	assert.False(t, ok)

	ext, ok := Match(ParseAtom("p", "X", "Z"), ParseAtom("p", "a", "c"), base)
	require.True(t, ok)
	assert.Len(t, base, 1, "Match must not modify its input substitution")
	assert.Equal(t, Const("c"), ext["Z"])
}

func TestExternalAtomReplacement(t *testing.T) {
	e := ExternalAtom{
		Function:   "diff",
		Inputs:     []Term{Const("d"), Const("q")},
		Outputs:    []Term{Var("X")},
		InputKinds: []InputKind{InputPredicate, InputPredicate},
	}
	assert.Equal(t, "&diff[d,q](X)", e.String())
	assert.Equal(t, "__ext_diff(d,q,X)", e.Replacement().String())
	assert.Equal(t, []string{"d", "q"}, e.InputPredicates())
	assert.True(t, e.HasGroundInput())
	assert.True(t, IsReplacementPredicate(e.ReplacementPredicate()))
}

func TestBuiltinHolds(t *testing.T) {
	b := BuiltinAtom{Op: OpLt, Left: Var("X"), Right: Int(3)}
	holds, ok := b.Holds(Substitution{"X": Int(2)})
	assert.True(t, ok)
	assert.True(t, holds)

	_, ok = b.Holds(nil)
	assert.False(t, ok, "unbound operand")
}

func TestAggregateValue(t *testing.T) {
	tuples := [][]Term{{Int(3)}, {Int(1)}, {Int(5)}}

	v, ok := AggregateValue(AggCount, tuples)
	require.True(t, ok)
	assert.Equal(t, Int(3), v)

	v, ok = AggregateValue(AggSum, tuples)
	require.True(t, ok)
	assert.Equal(t, Int(9), v)

	v, ok = AggregateValue(AggMin, tuples)
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	v, ok = AggregateValue(AggMax, tuples)
	require.True(t, ok)
	assert.Equal(t, Int(5), v)

	_, ok = AggregateValue(AggMin, nil)
	assert.False(t, ok)

	_, ok = AggregateValue(AggSum, [][]Term{{Const("a")}})
	assert.False(t, ok)
}

func TestRuleString(t *testing.T) {
	r := NewRule(
		[]Atom{ParseAtom("q", "a"), ParseAtom("q", `"b"`)},
	)
	assert.Equal(t, `q(a) v q("b").`, r.String())

	r = NewRule([]Atom{ParseAtom("a", "X")}, Not(ParseAtom("b", "X")), Pos(ParseAtom("p", "X")))
	assert.Equal(t, "a(X) :- not b(X), p(X).", r.String())
	assert.Equal(t, []string{"X"}, r.Variables())

	c := NewConstraint(Pos(ParseAtom("a", "a")))
	assert.True(t, c.IsConstraint())
	assert.Equal(t, ":- a(a).", c.String())
}

func TestRuleReplaceExternals(t *testing.T) {
	e := ExternalAtom{Function: "in", Inputs: []Term{Const("p")}, Outputs: []Term{Var("X")}}
	r := NewRule([]Atom{ParseAtom("q", "X")}, Pos(e), Not(ParseAtom("r", "X")))

	replaced := r.ReplaceExternals()
	assert.Equal(t, "q(X) :- __ext_in(p,X), not r(X).", replaced.String())
	assert.Equal(t, "q(X) :- &in[p](X), not r(X).", r.String(), "original rule untouched")

	plain := NewRule([]Atom{ParseAtom("q")})
	assert.Same(t, plain, plain.ReplaceExternals())
}
