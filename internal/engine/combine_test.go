package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/hexeval/internal/ir"
)

func models(sets ...[]string) []ir.Interpretation {
	out := make([]ir.Interpretation, len(sets))
	for i, s := range sets {
		m, err := ir.ParseInterpretation(s...)
		if err != nil {
			panic(err)
		}
		out[i] = m
	}
	return out
}

func strs(ms []ir.Interpretation) [][]string {
	out := make([][]string, len(ms))
	for i, m := range ms {
		out[i] = m.Strings()
	}
	return out
}

func TestCombineCrossProduct(t *testing.T) {
	left := models([]string{"a"}, []string{"b"})
	right := models([]string{"x"}, []string{"y"}, []string{"z"})

	got := combine(left, right)
	want := [][]string{
		{"a", "x"}, {"a", "y"}, {"a", "z"},
		{"b", "x"}, {"b", "y"}, {"b", "z"},
	}
	if diff := cmp.Diff(want, strs(got)); diff != "" {
		t.Errorf("combine mismatch (-want +got):\n%s", diff)
	}
}

func TestCombineKeepsDuplicates(t *testing.T) {
	left := models([]string{"a"}, []string{"a", "b"})
	right := models([]string{"b"}, []string{"a"})

	got := combine(left, right)
	assert.Len(t, got, 4)
	assert.Len(t, distinct(got), 2)
}

func TestCombineEdgeCases(t *testing.T) {
	assert.Equal(t, [][]string{{}}, strs(combine()))
	assert.Empty(t, combine(models([]string{"a"}), nil))
	assert.Equal(t, [][]string{{"a"}}, strs(combine(models([]string{"a"}))))
}
