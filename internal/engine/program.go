package engine

import (
	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/oracle"
	"github.com/roach88/hexeval/internal/plugin"
)

// ForProgram returns a processor for prog backed by the built-in oracle
// and by reg's external atoms. prog must already be resolved against reg.
// Both are given the processor's logger.
func ForProgram(prog *ir.Program, reg *plugin.Registry, opts ...Option) *GraphProcessor {
	p := New(depgraph.Build(prog), nil, nil, opts...)
	p.oracle = oracle.New(oracle.WithLogger(p.logger))
	p.eval = plugin.NewEvaluator(reg).WithLogger(p.logger)
	return p
}
