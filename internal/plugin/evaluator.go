package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/hexeval/internal/ir"
)

// Evaluator evaluates external atoms against a Registry.
type Evaluator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEvaluator returns an Evaluator over registry.
func NewEvaluator(registry *Registry) *Evaluator {
	return &Evaluator{registry: registry, logger: slog.Default()}
}

// WithLogger returns a copy of ev logging to l.
func (ev *Evaluator) WithLogger(l *slog.Logger) *Evaluator {
	out := *ev
	out.logger = l
	return &out
}

// Evaluate returns the replacement atoms ext derives under in.
//
// A non-ground input list is grounded by the facts of ext's auxiliary
// predicate; each grounding is a separate query. Every malformed input or
// answer is a PLUGIN_ERROR naming ext.
func (ev *Evaluator) Evaluate(ctx context.Context, ext ir.ExternalAtom, in ir.Interpretation) (ir.Interpretation, error) {
	p, ok := ev.registry.Lookup(ext.Function)
	if !ok {
		return ir.Interpretation{}, ir.NewPluginError(ext.String(), fmt.Sprintf("unknown external atom &%s", ext.Function))
	}
	if len(ext.Inputs) != len(p.InputKinds) {
		return ir.Interpretation{}, ir.NewPluginError(ext.String(),
			fmt.Sprintf("input arity %d, want %d", len(ext.Inputs), len(p.InputKinds)))
	}
	if len(ext.Outputs) != p.OutputArity {
		return ir.Interpretation{}, ir.NewPluginError(ext.String(),
			fmt.Sprintf("output arity %d, want %d", len(ext.Outputs), p.OutputArity))
	}

	inputs, err := groundInputs(ext, in)
	if err != nil {
		return ir.Interpretation{}, err
	}

	out := ir.NewInterpretation()
	for _, input := range inputs {
		q, err := query(ext, p, input, in)
		if err != nil {
			return ir.Interpretation{}, err
		}
		tuples, err := p.Retrieve(ctx, q)
		if err != nil {
			return ir.Interpretation{}, &ir.EvalError{
				Code:    ir.ErrCodePlugin,
				Message: "retrieve failed",
				Atom:    ext.String(),
				Err:     err,
			}
		}
		for _, t := range tuples {
			if len(t) != p.OutputArity {
				return ir.Interpretation{}, ir.NewPluginError(ext.String(),
					fmt.Sprintf("answer tuple has arity %d, want %d", len(t), p.OutputArity))
			}
			for _, term := range t {
				if !term.IsGround() {
					return ir.Interpretation{}, ir.NewPluginError(ext.String(),
						fmt.Sprintf("answer tuple contains variable %s", term))
				}
			}
			args := append(slices.Clone(input), t...)
			out.Insert(ir.NewAtom(ext.ReplacementPredicate(), args...))
		}
	}
	ev.logger.Debug("external atom evaluated", "atom", ext.String(), "inputs", len(inputs), "atoms", out.Len())
	return out, nil
}

// groundInputs returns the ground input lists of ext under in.
func groundInputs(ext ir.ExternalAtom, in ir.Interpretation) ([][]ir.Term, error) {
	if ext.HasGroundInput() {
		return [][]ir.Term{ext.Inputs}, nil
	}
	if ext.AuxPredicate == "" {
		return nil, ir.NewPluginError(ext.String(), "input list is not ground and has no auxiliary predicate")
	}
	pattern := ext.AuxAtom()
	var out [][]ir.Term
	for _, f := range in.ByPredicate(ext.AuxPredicate).Atoms() {
		if _, ok := ir.Match(pattern, f, nil); ok {
			out = append(out, f.Args)
		}
	}
	return out, nil
}

func query(ext ir.ExternalAtom, p Atom, input []ir.Term, in ir.Interpretation) (Query, error) {
	preds := make(map[string]bool)
	for i, t := range input {
		if p.InputKinds[i] != ir.InputPredicate {
			continue
		}
		if t.Kind != ir.TermConstant {
			return Query{}, ir.NewPluginError(ext.String(),
				fmt.Sprintf("predicate input %d is %s, want a predicate name", i+1, t))
		}
		preds[t.Name] = true
	}
	return Query{
		Input: input,
		Interpretation: in.Filter(func(a ir.Atom) bool {
			return preds[a.Predicate] && !a.Negated
		}),
	}, nil
}
