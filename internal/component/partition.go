package component

import (
	"fmt"

	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/modelgen"
)

// DependencyGraph is a NodeGraph split into Subgraphs and Components.
type DependencyGraph struct {
	graph      *depgraph.NodeGraph
	subgraphs  []*Subgraph
	components []Component
}

// Partition splits g.
//
// Every strong component becomes a program component:
//   - without external atoms it is KindOrdinary,
//   - with external atoms it is KindGuessCheck when a negative or
//     disjunctive edge runs inside it or one of its external atoms is
//     nonmonotonic, and KindFixpoint otherwise.
//
// Every external atom outside the strong components becomes a
// KindExternal component. Subgraphs are the weak components of g in
// order, followed by a subgraph named "free" holding the remaining nodes.
// Each component is registered on the subgraph containing its nodes.
func Partition(g *depgraph.NodeGraph, finder depgraph.ComponentFinder, gens modelgen.Generators) (*DependencyGraph, error) {
	dg := &DependencyGraph{graph: g}
	nodes := g.Nodes()

	inSCC := make(map[depgraph.NodeID]bool)
	for _, scc := range finder.StrongComponents(nodes) {
		kind := Classify(scc)
		c := NewProgramComponent(fmt.Sprintf("c%d", len(dg.components)), kind, g, scc, generatorFor(kind, gens))
		dg.components = append(dg.components, c)
		for _, n := range scc {
			inSCC[n.ID()] = true
		}
	}
	for _, n := range nodes {
		if inSCC[n.ID()] || !n.IsExternal() {
			continue
		}
		c, err := NewExternalComponent(fmt.Sprintf("c%d", len(dg.components)), n, gens.Evaluator)
		if err != nil {
			return nil, err
		}
		dg.components = append(dg.components, c)
	}

	subgraphOf := make(map[depgraph.NodeID]*Subgraph)
	for i, wcc := range finder.WeakComponents(nodes) {
		sg := NewSubgraph(fmt.Sprintf("wcc%d", i), g, wcc)
		dg.subgraphs = append(dg.subgraphs, sg)
		for _, n := range wcc {
			subgraphOf[n.ID()] = sg
		}
	}
	var free []*depgraph.AtomNode
	for _, n := range nodes {
		if subgraphOf[n.ID()] == nil {
			free = append(free, n)
		}
	}
	if len(free) > 0 {
		sg := NewSubgraph("free", g, free)
		dg.subgraphs = append(dg.subgraphs, sg)
		for _, n := range free {
			subgraphOf[n.ID()] = sg
		}
	}

	for _, c := range dg.components {
		sg := subgraphOf[c.Nodes()[0]]
		if err := sg.AddComponent(c); err != nil {
			return nil, fmt.Errorf("partition: %w", err)
		}
	}
	return dg, nil
}

// Classify picks the evaluation kind of a strong component.
func Classify(scc []*depgraph.AtomNode) Kind {
	members := make(map[depgraph.NodeID]bool, len(scc))
	for _, n := range scc {
		members[n.ID()] = true
	}

	var hasExternal, guess bool
	for _, n := range scc {
		if e, ok := n.External(); ok {
			hasExternal = true
			guess = guess || e.Nonmonotonic
		}
		for _, d := range n.Preceding() {
			if members[d.Target] && (d.Type == depgraph.NegPreceding || d.Type == depgraph.Disjunctive) {
				guess = true
			}
		}
	}
	switch {
	case !hasExternal:
		return KindOrdinary
	case guess:
		return KindGuessCheck
	default:
		return KindFixpoint
	}
}

func generatorFor(kind Kind, gens modelgen.Generators) modelgen.ModelGenerator {
	switch kind {
	case KindFixpoint:
		return gens.Fixpoint
	case KindGuessCheck:
		return gens.GuessCheck
	default:
		return gens.Ordinary
	}
}

// Graph returns the partitioned NodeGraph.
func (dg *DependencyGraph) Graph() *depgraph.NodeGraph { return dg.graph }

// Subgraphs returns the subgraphs, weak components first.
func (dg *DependencyGraph) Subgraphs() []*Subgraph { return dg.subgraphs }

// Components returns the components created by Partition: strong
// components first, then external components.
func (dg *DependencyGraph) Components() []Component { return dg.components }
