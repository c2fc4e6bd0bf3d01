package depgraph

import (
	"fmt"

	"github.com/roach88/hexeval/internal/ir"
)

// NodeGraph owns the AtomNodes and rules of one program. Nodes live in an
// arena indexed by NodeID; at most one node exists per distinct atom value.
//
// NodeGraph is not safe for concurrent mutation.
type NodeGraph struct {
	nodes []*AtomNode
	index map[string]NodeID
	rules []*ir.Rule
}

// NewNodeGraph returns an empty graph.
func NewNodeGraph() *NodeGraph {
	return &NodeGraph{index: make(map[string]NodeID)}
}

// Len returns the number of nodes.
func (g *NodeGraph) Len() int { return len(g.nodes) }

// Nodes returns all nodes in id order. Read-only.
func (g *NodeGraph) Nodes() []*AtomNode { return g.nodes }

// Node returns the node with the given id.
func (g *NodeGraph) Node(id NodeID) *AtomNode { return g.nodes[id] }

// Rules returns the rules referenced by node rule indices.
func (g *NodeGraph) Rules() []*ir.Rule { return g.rules }

// Rule returns rule i.
func (g *NodeGraph) Rule(i int) *ir.Rule { return g.rules[i] }

// Lookup returns the node wrapping atom, if any.
func (g *NodeGraph) Lookup(atom ir.BodyAtom) (*AtomNode, bool) {
	id, ok := g.index[nodeKey(atom)]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// AddUniqueHeadNode returns the node for atom, creating it if needed, and
// marks it as a head. On the node's first transition into the head role an
// Unifying edge is added from it to every existing body node it unifies with.
func (g *NodeGraph) AddUniqueHeadNode(atom ir.Atom) *AtomNode {
	n := g.addUnique(atom)
	if n.head {
		return n
	}
	n.head = true
	for _, other := range g.nodes {
		if other != n && other.body && unifies(n.atom, other.atom) {
			g.AddDependency(n, other, Unifying, NoRule)
		}
	}
	return n
}

// AddUniqueBodyNode returns the node for atom, creating it if needed, and
// marks it as a body node. On the node's first transition into the body
// role an Unifying edge is added to it from every existing head node it
// unifies with.
func (g *NodeGraph) AddUniqueBodyNode(atom ir.BodyAtom) *AtomNode {
	n := g.addUnique(atom)
	if n.body {
		return n
	}
	n.body = true
	for _, other := range g.nodes {
		if other != n && other.head && unifies(other.atom, n.atom) {
			g.AddDependency(other, n, Unifying, NoRule)
		}
	}
	return n
}

func (g *NodeGraph) addUnique(atom ir.BodyAtom) *AtomNode {
	key := nodeKey(atom)
	if id, ok := g.index[key]; ok {
		return g.nodes[id]
	}
	n := &AtomNode{id: NodeID(len(g.nodes)), atom: atom}
	g.nodes = append(g.nodes, n)
	g.index[key] = n.id
	return n
}

// AddDependency records that to depends on from. The edge is stored as a
// preceding edge on to and mirrored as a succeeding edge on from.
func (g *NodeGraph) AddDependency(from, to *AtomNode, typ DependencyType, rule int) {
	to.preceding, _ = insertDependency(to.preceding, Dependency{Rule: rule, Target: from.id, Type: typ})
	from.succeeding, _ = insertDependency(from.succeeding, Dependency{Rule: rule, Target: to.id, Type: typ})
}

// CheckMirrored verifies that every edge is stored on both of its endpoints.
func (g *NodeGraph) CheckMirrored() error {
	for _, n := range g.nodes {
		for _, d := range n.preceding {
			mirror := Dependency{Rule: d.Rule, Target: n.id, Type: d.Type}
			if !hasDependency(g.nodes[d.Target].succeeding, mirror) {
				return fmt.Errorf("node %d: preceding edge %+v has no succeeding mirror", n.id, d)
			}
		}
		for _, d := range n.succeeding {
			mirror := Dependency{Rule: d.Rule, Target: n.id, Type: d.Type}
			if !hasDependency(g.nodes[d.Target].preceding, mirror) {
				return fmt.Errorf("node %d: succeeding edge %+v has no preceding mirror", n.id, d)
			}
		}
	}
	return nil
}

func hasDependency(set []Dependency, d Dependency) bool {
	for _, x := range set {
		if x == d {
			return true
		}
	}
	return false
}

// unifies is false for every pair that is not two ordinary atoms.
func unifies(a, b ir.BodyAtom) bool {
	x, ok := a.(ir.Atom)
	if !ok {
		return false
	}
	y, ok := b.(ir.Atom)
	if !ok {
		return false
	}
	return ir.Unify(x, y)
}

func nodeKey(atom ir.BodyAtom) string {
	switch a := atom.(type) {
	case ir.Atom:
		return "o|" + a.Key()
	case ir.ExternalAtom:
		return "e|" + a.Key()
	case ir.AggregateAtom:
		return "g|" + a.Key()
	case ir.BuiltinAtom:
		return "b|" + a.Key()
	}
	return "?|" + atom.Key()
}
