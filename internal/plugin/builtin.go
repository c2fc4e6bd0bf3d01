package plugin

import (
	"context"
	"strconv"

	"github.com/roach88/hexeval/internal/ir"
)

// DefaultRegistry returns a registry holding the built-in plugin atoms:
//
//	&in[p](X)       X is the argument of a unary fact p(X)
//	&diff[p,q](X)   p(X) holds and q(X) does not
//	&count[p](N)    N facts of predicate p hold
//	&concat[a,b](S) S is the string a followed by b
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Atom{
		Name:        "in",
		InputKinds:  []ir.InputKind{ir.InputPredicate},
		OutputArity: 1,
		Retrieve: func(_ context.Context, q Query) ([]Tuple, error) {
			return unaryArgs(q.Interpretation, q.Input[0].Name, nil), nil
		},
	})
	r.MustRegister(Atom{
		Name:         "diff",
		InputKinds:   []ir.InputKind{ir.InputPredicate, ir.InputPredicate},
		OutputArity:  1,
		Nonmonotonic: true,
		Retrieve: func(_ context.Context, q Query) ([]Tuple, error) {
			minus := q.Interpretation.ByPredicate(q.Input[1].Name)
			return unaryArgs(q.Interpretation, q.Input[0].Name, func(t ir.Term) bool {
				return !minus.Contains(ir.NewAtom(q.Input[1].Name, t))
			}), nil
		},
	})
	r.MustRegister(Atom{
		Name:         "count",
		InputKinds:   []ir.InputKind{ir.InputPredicate},
		OutputArity:  1,
		Nonmonotonic: true,
		Retrieve: func(_ context.Context, q Query) ([]Tuple, error) {
			n := q.Interpretation.ByPredicate(q.Input[0].Name).Len()
			return []Tuple{{ir.Int(int64(n))}}, nil
		},
	})
	r.MustRegister(Atom{
		Name:        "concat",
		InputKinds:  []ir.InputKind{ir.InputConstant, ir.InputConstant},
		OutputArity: 1,
		Retrieve: func(_ context.Context, q Query) ([]Tuple, error) {
			return []Tuple{{ir.Str(text(q.Input[0]) + text(q.Input[1]))}}, nil
		},
	})
	return r
}

func unaryArgs(i ir.Interpretation, pred string, keep func(ir.Term) bool) []Tuple {
	var out []Tuple
	for _, a := range i.ByPredicate(pred).Atoms() {
		if a.Arity() != 1 || (keep != nil && !keep(a.Args[0])) {
			continue
		}
		out = append(out, Tuple{a.Args[0]})
	}
	return out
}

func text(t ir.Term) string {
	if t.Kind == ir.TermInteger {
		return strconv.FormatInt(t.Int, 10)
	}
	return t.Name
}
