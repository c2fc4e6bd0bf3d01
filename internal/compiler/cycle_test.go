package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hexeval/internal/plugin"
)

func resolved(t *testing.T, rules ...string) []CycleWarning {
	t.Helper()
	prog := program(t, rules...)
	require.Empty(t, Resolve(prog, plugin.DefaultRegistry()))
	return AnalyzeCycles(prog)
}

func TestAnalyzeCyclesNone(t *testing.T) {
	w := resolved(t)
	assert.NotNil(t, w)
	assert.Empty(t, w)

	assert.Empty(t, resolved(t, "p(X) :- d(X).", "q(X) :- p(X), not r(X)."))
}

func TestAnalyzeCyclesPositiveLoopIsSilent(t *testing.T) {
	assert.Empty(t, resolved(t, "p :- q.", "q :- p."))
}

func TestAnalyzeCyclesNegation(t *testing.T) {
	w := resolved(t, "a :- not b.", "b :- not a.")
	require.Len(t, w, 1)
	assert.Equal(t, "info", w[0].Level)
	assert.Equal(t, "ordinary", w[0].Kind)
	assert.ElementsMatch(t, []string{"a", "b"}, w[0].Atoms)
	assert.Contains(t, w[0].Message, "negation")
}

func TestAnalyzeCyclesGuessCheck(t *testing.T) {
	w := resolved(t,
		"p(X) :- d(X), &diff[d,q](X).",
		"q(X) :- d(X), &diff[d,p](X).",
	)
	require.Len(t, w, 1)
	assert.Equal(t, "warning", w[0].Level)
	assert.Equal(t, "guess-check", w[0].Kind)
	assert.Contains(t, w[0].Atoms, "&diff[d,q](X)")
}

func TestAnalyzeCyclesFixpoint(t *testing.T) {
	w := resolved(t,
		"p(X) :- d(X), &in[q](X).",
		"q(X) :- p(X).",
	)
	require.Len(t, w, 1)
	assert.Equal(t, "info", w[0].Level)
	assert.Equal(t, "fixpoint", w[0].Kind)
}
