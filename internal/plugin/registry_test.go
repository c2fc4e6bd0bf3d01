package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hexeval/internal/ir"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	noop := func(context.Context, Query) ([]Tuple, error) { return nil, nil }

	require.NoError(t, r.Register(Atom{Name: "b", Retrieve: noop}))
	require.NoError(t, r.Register(Atom{Name: "a", Retrieve: noop}))
	assert.Error(t, r.Register(Atom{Name: "a", Retrieve: noop}))
	assert.Error(t, r.Register(Atom{Name: "", Retrieve: noop}))
	assert.Error(t, r.Register(Atom{Name: "c"}))
	assert.Error(t, r.Register(Atom{Name: "d", OutputArity: -1, Retrieve: noop}))

	assert.Equal(t, []string{"a", "b"}, r.Names())
	_, ok := r.Lookup("c")
	assert.False(t, ok)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"concat", "count", "diff", "in"}, r.Names())

	in, _ := r.Lookup("in")
	assert.False(t, in.Nonmonotonic)
	diff, _ := r.Lookup("diff")
	assert.True(t, diff.Nonmonotonic)
	assert.Equal(t, []ir.InputKind{ir.InputPredicate, ir.InputPredicate}, diff.InputKinds)
	count, _ := r.Lookup("count")
	assert.True(t, count.Nonmonotonic)

	assert.Panics(t, func() { r.MustRegister(in) })
}
