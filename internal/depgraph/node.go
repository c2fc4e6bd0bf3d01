package depgraph

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/roach88/hexeval/internal/ir"
)

// NodeID indexes an AtomNode within its NodeGraph.
type NodeID int

// NoRule marks a Dependency that is not tied to a rule.
const NoRule = -1

// DependencyType tags a Dependency edge.
type DependencyType uint8

const (
	// Unifying links a head atom to a body atom it unifies with.
	Unifying DependencyType = iota + 1
	// Preceding links a positive body literal to the rule's heads.
	Preceding
	// NegPreceding links a default-negated body literal to the rule's heads.
	NegPreceding
	// Disjunctive links the head atoms of one disjunctive rule.
	Disjunctive
	// External links a head atom of an input predicate to an external atom.
	External
	// ExternalAux links an auxiliary input atom to its external atom.
	ExternalAux
)

var dependencyTypeNames = map[DependencyType]string{
	Unifying:     "UNIFYING",
	Preceding:    "PRECEDING",
	NegPreceding: "NEG_PRECEDING",
	Disjunctive:  "DISJUNCTIVE",
	External:     "EXTERNAL",
	ExternalAux:  "EXTERNAL_AUX",
}

func (t DependencyType) String() string {
	if s, ok := dependencyTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DependencyType(%d)", uint8(t))
}

// IsRuleDerived reports whether edges of type t come from a rule's structure.
func (t DependencyType) IsRuleDerived() bool {
	return t == Preceding || t == NegPreceding || t == Disjunctive
}

// Dependency is one directed, typed edge as seen from the node that stores it.
// On a preceding set Target is the node depended upon; on a succeeding set
// it is the dependent node.
type Dependency struct {
	Rule   int
	Target NodeID
	Type   DependencyType
}

// CompareDependencies orders edges by rule, then target, then type.
func CompareDependencies(a, b Dependency) int {
	if c := cmp.Compare(a.Rule, b.Rule); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Target, b.Target); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

func insertDependency(set []Dependency, d Dependency) ([]Dependency, bool) {
	i, found := slices.BinarySearchFunc(set, d, CompareDependencies)
	if found {
		return set, false
	}
	return slices.Insert(set, i, d), true
}

// AtomNode is one vertex of the dependency graph. It is created and owned
// by a NodeGraph.
type AtomNode struct {
	id   NodeID
	atom ir.BodyAtom

	head bool
	body bool
	aux  bool

	headRules []int
	rules     []int

	preceding  []Dependency
	succeeding []Dependency
}

// ID returns the node's index in its graph.
func (n *AtomNode) ID() NodeID { return n.id }

// Atom returns the wrapped atom.
func (n *AtomNode) Atom() ir.BodyAtom { return n.atom }

// IsHead reports whether the atom occurs in some rule head.
func (n *AtomNode) IsHead() bool { return n.head }

// IsBody reports whether the atom occurs in some rule body.
func (n *AtomNode) IsBody() bool { return n.body }

// IsAuxiliary reports whether the node was synthesized for external input grounding.
func (n *AtomNode) IsAuxiliary() bool { return n.aux }

// External returns the external atom of n, if it wraps one.
func (n *AtomNode) External() (ir.ExternalAtom, bool) {
	e, ok := n.atom.(ir.ExternalAtom)
	return e, ok
}

// IsExternal reports whether n wraps an external atom.
func (n *AtomNode) IsExternal() bool {
	_, ok := n.atom.(ir.ExternalAtom)
	return ok
}

// Rules returns the indices of the rules deriving this atom, ascending.
func (n *AtomNode) Rules() []int {
	if n.rules == nil && len(n.headRules) > 0 {
		rules := slices.Clone(n.headRules)
		slices.Sort(rules)
		n.rules = slices.Compact(rules)
	}
	return n.rules
}

func (n *AtomNode) addRule(rule int) {
	n.headRules = append(n.headRules, rule)
	n.rules = nil
}

// Preceding returns the edges to nodes this one depends on. Read-only.
func (n *AtomNode) Preceding() []Dependency { return n.preceding }

// Succeeding returns the edges to nodes depending on this one. Read-only.
func (n *AtomNode) Succeeding() []Dependency { return n.succeeding }

func (n *AtomNode) String() string {
	return fmt.Sprintf("#%d %s", n.id, n.atom)
}
