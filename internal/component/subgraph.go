package component

import (
	"fmt"
	"slices"

	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/modelgen"
)

// Subgraph is one weakly connected part of a NodeGraph together with the
// components registered on it.
//
// Leaves and the residue are computed from the current solved flags on
// every call; nothing is removed from the Subgraph while it is solved.
type Subgraph struct {
	name       string
	graph      *depgraph.NodeGraph
	nodes      []depgraph.NodeID
	members    map[depgraph.NodeID]bool
	components []Component
	owner      map[depgraph.NodeID]Component
	residues   int
}

// NewSubgraph returns a Subgraph over nodes of g with no components.
func NewSubgraph(name string, g *depgraph.NodeGraph, nodes []*depgraph.AtomNode) *Subgraph {
	s := &Subgraph{
		name:    name,
		graph:   g,
		members: make(map[depgraph.NodeID]bool, len(nodes)),
		owner:   make(map[depgraph.NodeID]Component),
	}
	for _, n := range nodes {
		if !s.members[n.ID()] {
			s.members[n.ID()] = true
			s.nodes = append(s.nodes, n.ID())
		}
	}
	slices.Sort(s.nodes)
	return s
}

func (s *Subgraph) Name() string { return s.name }

// Nodes returns the member node ids in ascending order.
func (s *Subgraph) Nodes() []depgraph.NodeID { return s.nodes }

// Contains reports whether id belongs to the subgraph.
func (s *Subgraph) Contains(id depgraph.NodeID) bool { return s.members[id] }

// Components returns the registered components in registration order.
func (s *Subgraph) Components() []Component { return s.components }

// ComponentOf returns the component owning id.
func (s *Subgraph) ComponentOf(id depgraph.NodeID) (Component, bool) {
	c, ok := s.owner[id]
	return c, ok
}

// AddComponent registers c. Its nodes must belong to the subgraph and to
// no other component.
func (s *Subgraph) AddComponent(c Component) error {
	for _, id := range c.Nodes() {
		if !s.members[id] {
			return fmt.Errorf("subgraph %s: component %s: node %d not in subgraph", s.name, c.Name(), id)
		}
		if other, ok := s.owner[id]; ok {
			return fmt.Errorf("subgraph %s: component %s: node %d already owned by %s", s.name, c.Name(), id, other.Name())
		}
	}
	for _, id := range c.Nodes() {
		s.owner[id] = c
	}
	s.components = append(s.components, c)
	return nil
}

// HasUnsolved reports whether some registered component is unsolved.
func (s *Subgraph) HasUnsolved() bool {
	for _, c := range s.components {
		if !c.IsSolved() {
			return true
		}
	}
	return false
}

// UnsolvedLeaves returns the unsolved components whose predecessor nodes
// outside the component all belong to solved components. A predecessor
// owned by no component is not solved.
func (s *Subgraph) UnsolvedLeaves() []Component {
	var out []Component
	for _, c := range s.components {
		if !c.IsSolved() && s.ready(c) {
			out = append(out, c)
		}
	}
	return out
}

func (s *Subgraph) ready(c Component) bool {
	for _, id := range c.Nodes() {
		for _, d := range s.graph.Node(id).Preceding() {
			if c.Contains(d.Target) || !s.members[d.Target] {
				continue
			}
			owner, ok := s.owner[d.Target]
			if !ok || !owner.IsSolved() {
				return false
			}
		}
	}
	return true
}

// Residue returns the nodes owned by no component that no unsolved
// component reaches along succeeding edges, in ascending order.
func (s *Subgraph) Residue() []*depgraph.AtomNode {
	blocked := make(map[depgraph.NodeID]bool)
	var queue []depgraph.NodeID
	for _, c := range s.components {
		if c.IsSolved() {
			continue
		}
		for _, id := range c.Nodes() {
			blocked[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, d := range s.graph.Node(id).Succeeding() {
			if s.members[d.Target] && !blocked[d.Target] {
				blocked[d.Target] = true
				queue = append(queue, d.Target)
			}
		}
	}

	var out []*depgraph.AtomNode
	for _, id := range s.nodes {
		if _, owned := s.owner[id]; !owned && !blocked[id] {
			out = append(out, s.graph.Node(id))
		}
	}
	return out
}

// NewResidueComponent wraps nodes in an ordinary component named after the
// subgraph. It is not registered.
func (s *Subgraph) NewResidueComponent(nodes []*depgraph.AtomNode, gen modelgen.ModelGenerator) *ProgramComponent {
	s.residues++
	name := fmt.Sprintf("%s/residue%d", s.name, s.residues)
	return NewProgramComponent(name, KindOrdinary, s.graph, nodes, gen)
}
