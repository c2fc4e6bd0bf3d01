package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/hexeval/internal/component"
	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/modelgen"
)

// GraphProcessor computes the answer sets of one program graph.
//
// Run evaluates the graph and keeps the answer sets; NextModel streams
// them and Reset rewinds the stream. Every Run partitions the graph anew,
// so a processor can be run again, for instance against other facts.
//
// INVARIANTS:
//   - every component is evaluated at most once per Run
//   - every answer set contains the facts Run was given
//   - answer sets are distinct and sorted by ir.SortModels
type GraphProcessor struct {
	graph    *depgraph.NodeGraph
	oracle   modelgen.Oracle
	eval     modelgen.ExternalEvaluator
	finder   depgraph.ComponentFinder
	observer Observer
	runIDs   RunIDGenerator
	clock    *Clock
	logger   *slog.Logger

	maxRounds int  // fixpoint round cap (default: modelgen.DefaultMaxRounds)
	internal  bool // keep atoms of internal predicates in answer sets

	runID  string
	dg     *component.DependencyGraph
	models []ir.Interpretation
	next   int
}

// Option configures a GraphProcessor.
type Option func(*GraphProcessor)

// WithMaxFixpointRounds sets the fixpoint round cap.
//
// Default: 10 rounds (modelgen.DefaultMaxRounds).
func WithMaxFixpointRounds(n int) Option {
	return func(p *GraphProcessor) {
		if n > 0 {
			p.maxRounds = n
		}
	}
}

// WithInternalAtoms keeps atoms of internal predicates (replacement,
// auxiliary and constraint atoms) in answer sets.
func WithInternalAtoms(keep bool) Option {
	return func(p *GraphProcessor) { p.internal = keep }
}

// WithObserver reports every component evaluation to o.
func WithObserver(o Observer) Option {
	return func(p *GraphProcessor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithRunIDs sets the generator naming runs. Default: UUIDv7Generator.
func WithRunIDs(gen RunIDGenerator) Option {
	return func(p *GraphProcessor) {
		if gen != nil {
			p.runIDs = gen
		}
	}
}

// WithFinder replaces the component finder. Default: depgraph.NewFinder().
func WithFinder(f depgraph.ComponentFinder) Option {
	return func(p *GraphProcessor) {
		if f != nil {
			p.finder = f
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *GraphProcessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a processor evaluating g with oracle and eval.
func New(g *depgraph.NodeGraph, oracle modelgen.Oracle, eval modelgen.ExternalEvaluator, opts ...Option) *GraphProcessor {
	p := &GraphProcessor{
		graph:     g,
		oracle:    oracle,
		eval:      eval,
		finder:    depgraph.NewFinder(),
		observer:  nopObserver{},
		runIDs:    UUIDv7Generator{},
		clock:     NewClock(),
		logger:    slog.Default(),
		maxRounds: modelgen.DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunID returns the id of the last Run.
func (p *GraphProcessor) RunID() string { return p.runID }

// DependencyGraph returns the partition of the last Run, or nil.
func (p *GraphProcessor) DependencyGraph() *component.DependencyGraph { return p.dg }

// Run computes the answer sets of the graph over edb and rewinds the
// stream. An empty result means the program is inconsistent. A non-nil
// error is fatal and leaves the processor without answer sets.
func (p *GraphProcessor) Run(ctx context.Context, edb ir.Interpretation) ([]ir.Interpretation, error) {
	p.models, p.next = nil, 0
	p.runID = p.runIDs.Generate()
	p.clock.Reset()

	gens := modelgen.NewGenerators(p.oracle, p.eval,
		modelgen.WithMaxRounds(p.maxRounds),
		modelgen.WithLogger(p.logger))
	dg, err := component.Partition(p.graph, p.finder, gens)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", p.runID, err)
	}
	p.dg = dg

	p.logger.Info("run starting",
		"run", p.runID,
		"nodes", p.graph.Len(),
		"subgraphs", len(dg.Subgraphs()),
		"components", len(dg.Components()))

	perSubgraph := make([][]ir.Interpretation, 0, len(dg.Subgraphs()))
	for _, sg := range dg.Subgraphs() {
		models, err := p.solveSubgraph(ctx, sg, gens, edb)
		if err != nil {
			return nil, err
		}
		if len(models) == 0 {
			p.logger.Info("run inconsistent", "run", p.runID, "subgraph", sg.Name())
			p.models = []ir.Interpretation{}
			return p.Models(), nil
		}
		perSubgraph = append(perSubgraph, models)
	}

	answers := []ir.Interpretation{edb}
	if len(perSubgraph) > 0 {
		answers = combine(perSubgraph...)
	}
	for i, m := range answers {
		if !p.internal {
			answers[i] = m.Visible()
		}
	}
	answers = distinct(answers)
	ir.SortModels(answers)
	p.models = answers

	p.logger.Info("run finished", "run", p.runID, "models", len(answers))
	return p.Models(), nil
}

// solveSubgraph evaluates sg until nothing in it is left unsolved.
func (p *GraphProcessor) solveSubgraph(ctx context.Context, sg *component.Subgraph, gens modelgen.Generators, edb ir.Interpretation) ([]ir.Interpretation, error) {
	current := []ir.Interpretation{edb}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !sg.HasUnsolved() && len(sg.Residue()) == 0 {
			return current, nil
		}

		leaves := sg.UnsolvedLeaves()
		if len(leaves) > 0 {
			var err error
			current, err = p.evaluateLeaves(ctx, sg, leaves, current)
			if err != nil {
				return nil, err
			}
			if len(current) == 0 {
				return current, nil
			}
		}

		residue := sg.Residue()
		if len(residue) > 0 {
			c := sg.NewResidueComponent(residue, gens.Ordinary)
			if err := sg.AddComponent(c); err != nil {
				return nil, fmt.Errorf("run %s: %w", p.runID, err)
			}
			if err := p.evaluate(ctx, sg, c, current); err != nil {
				return nil, err
			}
			current = distinct(c.Result())
			if len(current) == 0 {
				return current, nil
			}
		}

		if len(leaves) == 0 && len(residue) == 0 {
			return nil, &ir.EvalError{
				Code:    ir.ErrCodeUnorderable,
				Message: "no component can be evaluated",
				Details: map[string]string{"subgraph": sg.Name()},
			}
		}
	}
}

// evaluateLeaves evaluates every leaf against all of current and, input by
// input, combines the leaves' results.
func (p *GraphProcessor) evaluateLeaves(ctx context.Context, sg *component.Subgraph, leaves []component.Component, current []ir.Interpretation) ([]ir.Interpretation, error) {
	for _, c := range leaves {
		if err := p.evaluate(ctx, sg, c, current); err != nil {
			return nil, err
		}
	}
	var out []ir.Interpretation
	for i := range current {
		lists := make([][]ir.Interpretation, len(leaves))
		for j, c := range leaves {
			lists[j] = c.ResultFor(i)
		}
		out = append(out, combine(lists...)...)
	}
	return distinct(out), nil
}

func (p *GraphProcessor) evaluate(ctx context.Context, sg *component.Subgraph, c component.Component, inputs []ir.Interpretation) error {
	start := time.Now()
	if err := c.Evaluate(ctx, inputs); err != nil {
		p.logger.Warn("component failed", "run", p.runID, "component", c.Name(), "error", err)
		return err
	}
	ev := ComponentEvent{
		RunID:     p.runID,
		Seq:       p.clock.Next(),
		Subgraph:  sg.Name(),
		Component: c.Name(),
		Kind:      c.Kind(),
		Inputs:    len(inputs),
		Outputs:   len(c.Result()),
		Duration:  time.Since(start),
	}
	p.logger.Debug("component evaluated",
		"run", p.runID,
		"component", ev.Component,
		"kind", ev.Kind.String(),
		"inputs", ev.Inputs,
		"outputs", ev.Outputs)
	p.observer.ComponentEvaluated(ev)
	return nil
}

// Models returns a copy of the answer sets of the last Run.
func (p *GraphProcessor) Models() []ir.Interpretation {
	out := make([]ir.Interpretation, len(p.models))
	copy(out, p.models)
	return out
}

// NextModel returns the next answer set of the last Run. ok is false once
// the stream is exhausted.
func (p *GraphProcessor) NextModel() (m ir.Interpretation, ok bool) {
	if p.next >= len(p.models) {
		return ir.Interpretation{}, false
	}
	m = p.models[p.next]
	p.next++
	return m, true
}

// Reset rewinds the answer-set stream to its first model.
func (p *GraphProcessor) Reset() { p.next = 0 }
