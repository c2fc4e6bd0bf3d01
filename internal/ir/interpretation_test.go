package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretationSetOperations(t *testing.T) {
	i := NewInterpretation(ParseAtom("p", "a"), ParseAtom("q", "b"))
	o := NewInterpretation(ParseAtom("p", "a"))

	assert.Equal(t, 2, i.Len())
	assert.True(t, i.Contains(ParseAtom("p", "a")))
	assert.True(t, o.SubsetOf(i))
	assert.True(t, o.ProperSubsetOf(i))
	assert.False(t, i.ProperSubsetOf(i))
	assert.True(t, i.Equal(i.Clone()))

	u := o.Union(NewInterpretation(ParseAtom("r")))
	assert.Equal(t, 2, u.Len())
	assert.Equal(t, 1, o.Len(), "Union must not modify its receiver")

	d := i.Difference(o)
	assert.Equal(t, []string{"q(b)"}, d.Strings())
}

func TestInterpretationZeroValue(t *testing.T) {
	var i Interpretation
	assert.True(t, i.IsEmpty())
	assert.True(t, i.Insert(ParseAtom("p")))
	assert.False(t, i.Insert(ParseAtom("p")))
	assert.Equal(t, "{p}", i.String())
}

func TestInterpretationKeyIndependentOfOrder(t *testing.T) {
	a := NewInterpretation(ParseAtom("p", "1"), ParseAtom("q", "a"))
	b := NewInterpretation(ParseAtom("q", "a"), ParseAtom("p", "1"))
	assert.Equal(t, a.Key(), b.Key())
}

func TestInterpretationFilters(t *testing.T) {
	i := NewInterpretation(
		ParseAtom("p", "a"),
		ParseAtom("-p", "b"),
		ParseAtom("__ext_in", "p", "a"),
	)
	assert.Equal(t, []string{"p(a)"}, i.ByPredicate("p").Strings())
	assert.Equal(t, []string{"p(a)", "-p(b)"}, i.Visible().Strings())
}

func TestModelSetDeduplicates(t *testing.T) {
	var s ModelSet
	assert.True(t, s.Add(NewInterpretation(ParseAtom("p"))))
	assert.False(t, s.Add(NewInterpretation(ParseAtom("p"))))
	assert.True(t, s.Add(NewInterpretation()))
	assert.Equal(t, 2, s.Len())

	var empty ModelSet
	assert.NotNil(t, empty.Models())
}
