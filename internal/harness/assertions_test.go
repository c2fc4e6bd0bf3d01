package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.RunID = "run-1"
	r.Models = [][]string{
		{"d(1)", "d(2)", "p(1)", "p(2)"},
		{"d(1)", "d(2)", "p(1)", "q(2)"},
	}
	r.Trace = []TraceEvent{
		{Seq: 1, Subgraph: "wcc0", Component: "wcc0/residue1", Kind: "ordinary", Inputs: 1, Outputs: 1},
		{Seq: 2, Subgraph: "wcc0", Component: "c0", Kind: "guess-check", Inputs: 1, Outputs: 2},
	}
	return r
}

func TestAssertModelCount(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertModelCount(r, Assertion{Type: AssertModelCount, Count: 2}))

	err := assertModelCount(r, Assertion{Type: AssertModelCount, Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 3 answer sets")
	assert.Contains(t, err.Error(), "Actual: 2 answer sets")
}

func TestAssertAllModelsContain(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertAllModelsContain(r, Assertion{Atoms: []string{"d(1)", "p(1)"}}))
	assert.NoError(t, assertAllModelsContain(r, Assertion{Atoms: []string{"p( 1 )"}}), "atoms are canonicalized")

	err := assertAllModelsContain(r, Assertion{Atoms: []string{"p(2)"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer set 2 does not")

	err = assertAllModelsContain(NewResult(), Assertion{Atoms: []string{"a"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no answer sets")
}

func TestAssertSomeModelContains(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertSomeModelContains(r, Assertion{Atoms: []string{"q(2)", "p(1)"}}))

	err := assertSomeModelContains(r, Assertion{Atoms: []string{"q(1)"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAssertNoModelContains(t *testing.T) {
	r := sampleResult()
	assert.NoError(t, assertNoModelContains(r, Assertion{Atoms: []string{"p(2)", "q(2)"}}))

	err := assertNoModelContains(r, Assertion{Atoms: []string{"q(2)"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer set 2 contains them")
}

func TestAssertInconsistent(t *testing.T) {
	assert.NoError(t, assertInconsistent(NewResult()))

	err := assertInconsistent(sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 2 answer sets")

	failed := NewResult()
	failed.ErrorCode = "ORACLE_FAILURE"
	err = assertInconsistent(failed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error ORACLE_FAILURE")
}

func TestAssertComponentKind(t *testing.T) {
	trace := sampleResult().Trace
	assert.NoError(t, assertComponentKind(trace, Assertion{Component: "c0", Kind: "guess-check"}))

	err := assertComponentKind(trace, Assertion{Component: "c0", Kind: "fixpoint"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind guess-check")

	err = assertComponentKind(trace, Assertion{Component: "c9", Kind: "ordinary"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component not evaluated")
}

func TestAssertEvaluationOrder(t *testing.T) {
	trace := sampleResult().Trace
	assert.NoError(t, assertEvaluationOrder(trace, Assertion{Components: []string{"wcc0/residue1", "c0"}}))
	assert.NoError(t, assertEvaluationOrder(trace, Assertion{Components: []string{"c0"}}))

	err := assertEvaluationOrder(trace, Assertion{Components: []string{"c0", "wcc0/residue1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c0 (pos 2) should be before wcc0/residue1 (pos 1)")

	err = assertEvaluationOrder(trace, Assertion{Components: []string{"c0", "c1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing component: c1")
}

func TestEvaluateAssertions(t *testing.T) {
	r := sampleResult()
	errs := EvaluateAssertions(r, []Assertion{
		{Type: AssertModelCount, Count: 2},
		{Type: AssertSomeModelContains, Atoms: []string{"q(1)"}},
		{Type: AssertComponentKind, Component: "c0", Kind: "guess-check"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "some_model_contains")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)

	assert.Empty(t, EvaluateAssertions(r, nil))
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertModelCount,
		Expected: "1 answer sets",
		Actual:   "2 answer sets",
		Models:   [][]string{{"a"}, {"b", "c"}},
		Trace:    []TraceEvent{{Seq: 1, Subgraph: "wcc0", Component: "c0", Kind: "ordinary", Inputs: 1, Outputs: 2}},
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: model_count\n")
	assert.Contains(t, msg, "  [2] {b, c}\n")
	assert.Contains(t, msg, "  [1] wcc0/c0 ordinary 1 -> 2\n")
}
