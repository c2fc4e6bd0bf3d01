package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/oracle"
	"github.com/roach88/hexeval/internal/plugin"
	"github.com/roach88/hexeval/internal/testutil"
)

func TestForProgram(t *testing.T) {
	reg := plugin.DefaultRegistry()
	prog, err := compiler.Build(&compiler.ProgramDoc{
		Facts: []string{"d(1)", "d(2)"},
		Rules: []compiler.RuleDoc{
			{Text: "p(X) :- d(X), &diff[d,q](X)."},
			{Text: "q(X) :- d(X), &diff[d,p](X)."},
		},
	}, reg)
	require.NoError(t, err)

	p := ForProgram(prog, reg, WithRunIDs(NewFixedGenerator("run-1")))
	got, err := p.Run(context.Background(), prog.EDB())
	require.NoError(t, err)
	assert.Equal(t, run(t, diffProgram()), strs(got))
	assert.Len(t, got, 4)
	assert.Equal(t, "run-1", p.RunID())
}

func TestRunWithStubOracle(t *testing.T) {
	prog := testutil.MustProgram([]string{"f"}, "a v b.")
	o := &testutil.StubOracle{Models: []ir.Interpretation{
		testutil.MustInterpretation("a"),
		testutil.MustInterpretation("b"),
	}}
	p := New(depgraph.Build(prog), o, &testutil.StubEvaluator{},
		WithRunIDs(testutil.NewFixedRunIDGenerator("")))

	got, err := p.Run(context.Background(), prog.EDB())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "f"}, {"b", "f"}}, testutil.Strings(got))
	assert.Len(t, o.Calls(), 1)
	assert.Equal(t, "test-run-default", p.RunID())
}

func TestRunOracleFailure(t *testing.T) {
	prog := testutil.MustProgram(nil, "a v b.")
	o := &testutil.StubOracle{Err: errors.New("solver crashed")}
	p := New(depgraph.Build(prog), o, &testutil.StubEvaluator{})

	_, err := p.Run(context.Background(), prog.EDB())
	require.Error(t, err)
	assert.True(t, ir.HasCode(err, ir.ErrCodeOracleFailure))
	assert.True(t, ir.IsFatal(err))
}

func TestRunWithStubEvaluator(t *testing.T) {
	prog := testutil.MustProgram([]string{"d(a)"}, "p(X) :- d(X), &pick[d](X).")
	prog.Rules[0].Body[1].Atom = external("pick", false, []string{"d"}, ir.Var("X"))
	ev := &testutil.StubEvaluator{Answers: map[string][][]ir.Term{
		"pick": {{ir.Const("a")}, {ir.Const("b")}},
	}}
	p := New(depgraph.Build(prog), oracle.New(), ev)

	got, err := p.Run(context.Background(), prog.EDB())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"d(a)", "p(a)"}}, testutil.Strings(got))
}
