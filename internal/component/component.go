package component

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/modelgen"
)

// Kind says how a component is evaluated.
type Kind uint8

const (
	// KindOrdinary components are solved with one oracle call per input.
	KindOrdinary Kind = iota + 1
	// KindFixpoint components iterate external evaluation and oracle calls.
	KindFixpoint
	// KindGuessCheck components guess external results and check them.
	KindGuessCheck
	// KindExternal components evaluate a single external atom.
	KindExternal
)

var kindNames = map[Kind]string{
	KindOrdinary:   "ordinary",
	KindFixpoint:   "fixpoint",
	KindGuessCheck: "guess-check",
	KindExternal:   "external",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Component is a set of nodes evaluated as one step.
//
// Evaluate is called at most once. For input i it records the resulting
// interpretations, each of which contains input i.
type Component interface {
	Name() string
	Kind() Kind

	// Nodes returns the member node ids in ascending order.
	Nodes() []depgraph.NodeID
	Contains(id depgraph.NodeID) bool

	IsSolved() bool
	Evaluate(ctx context.Context, inputs []ir.Interpretation) error

	// Result returns every recorded interpretation, input by input.
	Result() []ir.Interpretation

	// ResultFor returns the interpretations recorded for input i.
	ResultFor(i int) []ir.Interpretation
}

type base struct {
	name    string
	kind    Kind
	nodes   []depgraph.NodeID
	members map[depgraph.NodeID]bool
	solved  bool
	results [][]ir.Interpretation
}

func newBase(name string, kind Kind, nodes []*depgraph.AtomNode) base {
	b := base{name: name, kind: kind, members: make(map[depgraph.NodeID]bool, len(nodes))}
	for _, n := range nodes {
		if !b.members[n.ID()] {
			b.members[n.ID()] = true
			b.nodes = append(b.nodes, n.ID())
		}
	}
	slices.Sort(b.nodes)
	return b
}

func (b *base) Name() string                     { return b.name }
func (b *base) Kind() Kind                       { return b.kind }
func (b *base) Nodes() []depgraph.NodeID         { return b.nodes }
func (b *base) Contains(id depgraph.NodeID) bool { return b.members[id] }
func (b *base) IsSolved() bool                   { return b.solved }

func (b *base) Result() []ir.Interpretation {
	out := []ir.Interpretation{}
	for _, r := range b.results {
		out = append(out, r...)
	}
	return out
}

func (b *base) ResultFor(i int) []ir.Interpretation {
	if i < 0 || i >= len(b.results) {
		return nil
	}
	return b.results[i]
}

func (b *base) checkUnsolved() error {
	if b.solved {
		return &ir.EvalError{
			Code:      ir.ErrCodeComponentSolved,
			Message:   "component already evaluated",
			Component: b.name,
		}
	}
	return nil
}

// ProgramComponent evaluates the rules of its nodes with a model generator.
type ProgramComponent struct {
	base
	unit modelgen.Unit
	gen  modelgen.ModelGenerator
}

// NewProgramComponent binds the unit of nodes in g to gen.
func NewProgramComponent(name string, kind Kind, g *depgraph.NodeGraph, nodes []*depgraph.AtomNode, gen modelgen.ModelGenerator) *ProgramComponent {
	b := newBase(name, kind, nodes)
	u := UnitFor(g, nodes)
	u.Name = name
	return &ProgramComponent{base: b, unit: u, gen: gen}
}

// Unit returns the rules and external atoms the component evaluates.
func (c *ProgramComponent) Unit() modelgen.Unit { return c.unit }

// Evaluate implements Component.
func (c *ProgramComponent) Evaluate(ctx context.Context, inputs []ir.Interpretation) error {
	if err := c.checkUnsolved(); err != nil {
		return err
	}
	if c.gen == nil {
		return &ir.EvalError{Code: ir.ErrCodeInvalidComponent, Message: "no model generator", Component: c.name}
	}
	results := make([][]ir.Interpretation, len(inputs))
	for i, in := range inputs {
		models, err := c.gen.Compute(ctx, c.unit, in)
		if err != nil {
			return err
		}
		results[i] = models
	}
	c.results = results
	c.solved = true
	return nil
}

// ExternalComponent evaluates one external atom and adds its result to
// each input.
type ExternalComponent struct {
	base
	ext  ir.ExternalAtom
	eval modelgen.ExternalEvaluator
}

// NewExternalComponent wraps node, which must hold an external atom.
func NewExternalComponent(name string, node *depgraph.AtomNode, eval modelgen.ExternalEvaluator) (*ExternalComponent, error) {
	ext, ok := node.External()
	if !ok {
		return nil, &ir.EvalError{
			Code:      ir.ErrCodeInvalidComponent,
			Message:   fmt.Sprintf("node %s is not an external atom", node),
			Component: name,
		}
	}
	return &ExternalComponent{base: newBase(name, KindExternal, []*depgraph.AtomNode{node}), ext: ext, eval: eval}, nil
}

// External returns the wrapped external atom.
func (c *ExternalComponent) External() ir.ExternalAtom { return c.ext }

// Evaluate implements Component.
func (c *ExternalComponent) Evaluate(ctx context.Context, inputs []ir.Interpretation) error {
	if err := c.checkUnsolved(); err != nil {
		return err
	}
	results := make([][]ir.Interpretation, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := c.eval.Evaluate(ctx, c.ext, in)
		if err != nil {
			return c.tag(err)
		}
		results[i] = []ir.Interpretation{in.Union(res)}
	}
	c.results = results
	c.solved = true
	return nil
}

func (c *ExternalComponent) tag(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if ee, ok := ir.AsEvalError(err); ok {
		return ee.WithComponent(c.name)
	}
	return &ir.EvalError{Code: ir.ErrCodePlugin, Message: "evaluation failed", Component: c.name, Atom: c.ext.String(), Err: err}
}

// UnitFor collects the rules deriving the head nodes among nodes and the
// external atoms among nodes. Rules keep their program order.
func UnitFor(g *depgraph.NodeGraph, nodes []*depgraph.AtomNode) modelgen.Unit {
	var (
		idx  []int
		u    modelgen.Unit
		seen = make(map[string]bool)
	)
	for _, n := range nodes {
		if n.IsHead() {
			idx = append(idx, n.Rules()...)
		}
		if e, ok := n.External(); ok && !seen[e.Key()] {
			seen[e.Key()] = true
			u.Externals = append(u.Externals, e)
		}
	}
	slices.Sort(idx)
	for _, i := range slices.Compact(idx) {
		u.Rules = append(u.Rules, g.Rule(i))
	}
	return u
}
