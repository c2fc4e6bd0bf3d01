package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/hexeval/internal/ir"
)

// StubOracle returns canned models, each unioned with the facts it is
// given, and records every call. A nil Models list answers with the facts
// alone. Safe for concurrent use.
type StubOracle struct {
	Models []ir.Interpretation
	Err    error

	mu    sync.Mutex
	calls [][]*ir.Rule
}

// Solve implements modelgen.Oracle.
func (o *StubOracle) Solve(ctx context.Context, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error) {
	o.mu.Lock()
	o.calls = append(o.calls, slices.Clone(rules))
	o.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.Err != nil {
		return nil, o.Err
	}
	if o.Models == nil {
		return []ir.Interpretation{facts}, nil
	}
	out := make([]ir.Interpretation, len(o.Models))
	for i, m := range o.Models {
		out[i] = facts.Union(m)
	}
	return out, nil
}

// Calls returns the rule sets of every Solve call in order.
func (o *StubOracle) Calls() [][]*ir.Rule {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.calls)
}

// StubEvaluator answers external atoms from a table of output tuples
// keyed by function name. Inputs must be ground; each tuple yields the
// replacement atom over inputs ++ tuple. Functions without an entry have
// no answers.
type StubEvaluator struct {
	Answers map[string][][]ir.Term
	Err     error
}

// Evaluate implements modelgen.ExternalEvaluator.
func (e *StubEvaluator) Evaluate(_ context.Context, ext ir.ExternalAtom, _ ir.Interpretation) (ir.Interpretation, error) {
	if e.Err != nil {
		return ir.Interpretation{}, e.Err
	}
	out := ir.NewInterpretation()
	for _, tuple := range e.Answers[ext.Function] {
		args := append(slices.Clone(ext.Inputs), tuple...)
		out.Insert(ir.NewAtom(ext.ReplacementPredicate(), args...))
	}
	return out, nil
}
