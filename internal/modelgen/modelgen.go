package modelgen

import (
	"context"
	"errors"
	"log/slog"

	"github.com/roach88/hexeval/internal/ir"
)

// Oracle computes the stable models of a rule set. Replacement atoms stand
// in for external atoms, so rules handed to an oracle contain only
// ordinary, builtin and aggregate literals.
//
// Solve returns every stable model unioned with facts, or an empty slice
// when there is none. A non-nil error is fatal.
type Oracle interface {
	Solve(ctx context.Context, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error)

// Solve calls f.
func (f OracleFunc) Solve(ctx context.Context, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error) {
	return f(ctx, rules, facts)
}

// ExternalEvaluator computes the replacement atoms an external atom derives
// under an interpretation.
type ExternalEvaluator interface {
	Evaluate(ctx context.Context, ext ir.ExternalAtom, in ir.Interpretation) (ir.Interpretation, error)
}

// EvaluatorFunc adapts a function to the ExternalEvaluator interface.
type EvaluatorFunc func(ctx context.Context, ext ir.ExternalAtom, in ir.Interpretation) (ir.Interpretation, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, ext ir.ExternalAtom, in ir.Interpretation) (ir.Interpretation, error) {
	return f(ctx, ext, in)
}

// Unit is the part of a program one component evaluates.
type Unit struct {
	// Name identifies the component in errors and logs.
	Name string

	// Rules derive the component's head atoms. External literals are kept;
	// generators replace them before calling the oracle.
	Rules []*ir.Rule

	// Externals are the external atoms inside the component. External
	// literals of Rules not listed here were evaluated upstream and their
	// replacement atoms are part of the input.
	Externals []ir.ExternalAtom
}

// OracleRules returns Rules with every external literal replaced.
func (u Unit) OracleRules() []*ir.Rule {
	out := make([]*ir.Rule, len(u.Rules))
	for i, r := range u.Rules {
		out[i] = r.ReplaceExternals()
	}
	return out
}

// Owns reports whether e is one of the unit's external atoms.
func (u Unit) Owns(e ir.ExternalAtom) bool {
	for _, x := range u.Externals {
		if x.Key() == e.Key() {
			return true
		}
	}
	return false
}

// ModelGenerator computes the models of a unit under one input interpretation.
type ModelGenerator interface {
	Compute(ctx context.Context, u Unit, in ir.Interpretation) ([]ir.Interpretation, error)
}

// DefaultMaxRounds caps fixpoint iteration.
const DefaultMaxRounds = 10

type config struct {
	maxRounds int
	logger    *slog.Logger
}

// Option configures the generators built by NewGenerators.
type Option func(*config)

// WithMaxRounds sets the fixpoint round cap. Values below 1 are ignored.
func WithMaxRounds(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// WithLogger sets the logger generators report progress to.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Generators bundles one generator per strategy plus the evaluator used by
// external components.
type Generators struct {
	Ordinary   *Ordinary
	Fixpoint   *Fixpoint
	GuessCheck *GuessCheck
	Evaluator  ExternalEvaluator
}

// NewGenerators wires the three strategies to one oracle and evaluator.
func NewGenerators(oracle Oracle, eval ExternalEvaluator, opts ...Option) Generators {
	cfg := config{maxRounds: DefaultMaxRounds, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	fp := &Fixpoint{oracle: oracle, eval: eval, maxRounds: cfg.maxRounds, logger: cfg.logger}
	return Generators{
		Ordinary:   &Ordinary{oracle: oracle, logger: cfg.logger},
		Fixpoint:   fp,
		GuessCheck: &GuessCheck{oracle: oracle, eval: eval, fixpoint: fp, logger: cfg.logger},
		Evaluator:  eval,
	}
}

// solve calls the oracle, tagging failures with the unit name.
func solve(ctx context.Context, o Oracle, u Unit, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error) {
	models, err := o.Solve(ctx, rules, facts)
	if err != nil {
		return nil, tagError(err, u.Name, func(cause error) *ir.EvalError {
			return ir.NewOracleError("solve failed", "", cause)
		})
	}
	out := make([]ir.Interpretation, len(models))
	for i, m := range models {
		out[i] = m.Union(facts)
	}
	return out, nil
}

// evaluateAll unions the results of every external atom under in.
func evaluateAll(ctx context.Context, ev ExternalEvaluator, u Unit, in ir.Interpretation) (ir.Interpretation, error) {
	out := ir.NewInterpretation()
	for _, e := range u.Externals {
		res, err := ev.Evaluate(ctx, e, in)
		if err != nil {
			return ir.Interpretation{}, tagError(err, u.Name, func(cause error) *ir.EvalError {
				return &ir.EvalError{Code: ir.ErrCodePlugin, Message: "evaluation failed", Atom: e.String(), Err: cause}
			})
		}
		out.InsertAll(res)
	}
	return out, nil
}

// tagError sets the component on an EvalError, or wraps a plain error with
// wrap. Context errors pass through untouched.
func tagError(err error, component string, wrap func(error) *ir.EvalError) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if ee, ok := ir.AsEvalError(err); ok {
		return ee.WithComponent(component)
	}
	return wrap(err).WithComponent(component)
}
