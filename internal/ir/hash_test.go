package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretationHashOrderIndependent(t *testing.T) {
	a := NewInterpretation(ParseAtom("p", "a"), ParseAtom("q"))
	b := NewInterpretation(ParseAtom("q"), ParseAtom("p", "a"))
	assert.Equal(t, MustInterpretationHash(a), MustInterpretationHash(b))
	assert.Len(t, MustInterpretationHash(a), 64)
}

func TestInterpretationHashChangesWithContent(t *testing.T) {
	a := NewInterpretation(ParseAtom("p", "a"))
	b := NewInterpretation(ParseAtom("p", `"a"`))
	assert.NotEqual(t, MustInterpretationHash(a), MustInterpretationHash(b))
}

func TestProgramHashDeterminism(t *testing.T) {
	p := &Program{
		Rules: []*Rule{NewRule([]Atom{ParseAtom("p", "X")}, Pos(ParseAtom("q", "X")))},
		Facts: []Atom{ParseAtom("q", "a")},
	}
	assert.Equal(t, MustProgramHash(p), MustProgramHash(p))

	other := &Program{Rules: p.Rules}
	assert.NotEqual(t, MustProgramHash(p), MustProgramHash(other))
}

func TestAnswerSetIDScopedToRun(t *testing.T) {
	m := NewInterpretation(ParseAtom("p"))
	id1, err := AnswerSetID("run-1", m)
	require.NoError(t, err)
	id2, err := AnswerSetID("run-2", m)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`["p"]`)
	assert.NotEqual(t, hashWithDomain(DomainInterpretation, data), hashWithDomain(DomainAnswerSet, data))
}
