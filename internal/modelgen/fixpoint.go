package modelgen

import (
	"context"
	"log/slog"

	"github.com/roach88/hexeval/internal/ir"
)

// Fixpoint computes the model of a stratified component by alternating
// external evaluation and oracle calls:
//
//	I0 = input
//	E  = results of every unit external atom under Ii
//	M  = the single stable model of the unit rules over Ii ∪ E
//	Ii+1 = M without the replacement atoms of E that Ii did not hold
//
// until Ii+1 = Ii, in which case M is the model. An oracle answer with
// several models means the component is not stratified and is fatal; no
// answer means the component is inconsistent. Reaching the round cap is
// fatal.
type Fixpoint struct {
	oracle    Oracle
	eval      ExternalEvaluator
	maxRounds int
	logger    *slog.Logger
}

// NewFixpoint returns a Fixpoint generator with DefaultMaxRounds.
func NewFixpoint(oracle Oracle, eval ExternalEvaluator) *Fixpoint {
	return &Fixpoint{oracle: oracle, eval: eval, maxRounds: DefaultMaxRounds, logger: slog.Default()}
}

// MaxRounds returns the round cap.
func (g *Fixpoint) MaxRounds() int { return g.maxRounds }

// selector picks the model a round continues with. ok is false when no
// model is acceptable, which ends the iteration without a result.
type selector func(u Unit, models []ir.Interpretation) (m ir.Interpretation, ok bool, err error)

func selectUnique(u Unit, models []ir.Interpretation) (ir.Interpretation, bool, error) {
	if len(models) > 1 {
		return ir.Interpretation{}, false, ir.NewUnstratifiedError(len(models)).WithComponent(u.Name)
	}
	return models[0], true, nil
}

// Compute implements ModelGenerator.
func (g *Fixpoint) Compute(ctx context.Context, u Unit, in ir.Interpretation) ([]ir.Interpretation, error) {
	return g.compute(ctx, u, in, selectUnique)
}

func (g *Fixpoint) compute(ctx context.Context, u Unit, in ir.Interpretation, choose selector) ([]ir.Interpretation, error) {
	rules := u.OracleRules()
	current := in

	for round := 1; round <= g.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext, err := evaluateAll(ctx, g.eval, u, current)
		if err != nil {
			return nil, err
		}
		models, err := solve(ctx, g.oracle, u, rules, current.Union(ext))
		if err != nil {
			return nil, err
		}
		if len(models) == 0 {
			g.logger.Debug("fixpoint round has no model", "component", u.Name, "round", round)
			return []ir.Interpretation{}, nil
		}
		m, ok, err := choose(u, models)
		if err != nil {
			return nil, err
		}
		if !ok {
			return []ir.Interpretation{}, nil
		}

		next := m.Filter(func(a ir.Atom) bool {
			return !ext.Contains(a) || current.Contains(a)
		})
		g.logger.Debug("fixpoint round", "component", u.Name, "round", round, "atoms", next.Len())
		if next.Equal(current) {
			return []ir.Interpretation{m}, nil
		}
		current = next
	}
	return nil, ir.NewFixpointDivergedError(g.maxRounds).WithComponent(u.Name)
}
