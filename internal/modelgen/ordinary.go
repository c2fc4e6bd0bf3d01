package modelgen

import (
	"context"
	"log/slog"

	"github.com/roach88/hexeval/internal/ir"
)

// Ordinary computes models with a single oracle call. External literals
// of the unit's rules must already be evaluated: their replacement atoms
// are read from the input.
type Ordinary struct {
	oracle Oracle
	logger *slog.Logger
}

// NewOrdinary returns an Ordinary generator backed by oracle.
func NewOrdinary(oracle Oracle) *Ordinary {
	return &Ordinary{oracle: oracle, logger: slog.Default()}
}

// Compute implements ModelGenerator. A unit without rules has exactly one
// model, the input.
func (g *Ordinary) Compute(ctx context.Context, u Unit, in ir.Interpretation) ([]ir.Interpretation, error) {
	if len(u.Rules) == 0 {
		return []ir.Interpretation{in}, nil
	}
	models, err := solve(ctx, g.oracle, u, u.OracleRules(), in)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("ordinary component solved", "component", u.Name, "rules", len(u.Rules), "models", len(models))
	return models, nil
}
