package depgraph

import (
	"slices"
)

// ComponentFinder partitions a set of nodes into connected components.
// Implementations are pure: they never modify the nodes and always return
// the same grouping for the same node set, whatever its order.
type ComponentFinder interface {
	// WeakComponents returns the maximal groups connected by any edge,
	// direction ignored. Singleton groups are omitted.
	WeakComponents(nodes []*AtomNode) [][]*AtomNode

	// StrongComponents returns the maximal groups connected by directed
	// cycles. Singleton groups are omitted.
	StrongComponents(nodes []*AtomNode) [][]*AtomNode
}

// EdgeMask selects the dependency types a finder follows for strong components.
type EdgeMask uint8

// Mask returns the mask selecting only t.
func Mask(t DependencyType) EdgeMask { return 1 << t }

// Has reports whether m selects t.
func (m EdgeMask) Has(t DependencyType) bool { return m&Mask(t) != 0 }

const (
	// RuleEdges selects Preceding, NegPreceding and Disjunctive edges.
	RuleEdges = EdgeMask(1<<Preceding | 1<<NegPreceding | 1<<Disjunctive)

	// AllEdges selects every dependency type. Every cycle passes through at
	// least one rule edge, since Unifying and External edges always enter a
	// body node and only rule edges leave one.
	AllEdges = RuleEdges | EdgeMask(1<<Unifying|1<<External|1<<ExternalAux)
)

// TarjanFinder computes strong components with Tarjan's algorithm and weak
// components with union-find. Both results are ordered by the smallest
// node id of each group, and each group is sorted by id.
type TarjanFinder struct {
	// StrongEdges selects the edges followed for strong components.
	StrongEdges EdgeMask
}

// NewFinder returns a TarjanFinder following all edge types.
func NewFinder() *TarjanFinder {
	return &TarjanFinder{StrongEdges: AllEdges}
}

// StrongComponents implements ComponentFinder.
func (f *TarjanFinder) StrongComponents(nodes []*AtomNode) [][]*AtomNode {
	byID, order := indexNodes(nodes)
	mask := f.StrongEdges
	if mask == 0 {
		mask = AllEdges
	}

	var (
		index   = 0
		stack   []NodeID
		indices = make(map[NodeID]int)
		lowlink = make(map[NodeID]int)
		onStack = make(map[NodeID]bool)
		sccs    [][]*AtomNode
	)

	var strongConnect func(NodeID)
	strongConnect = func(v NodeID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, d := range byID[v].succeeding {
			w := d.Target
			if _, member := byID[w]; !member || !mask.Has(d.Type) {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []*AtomNode
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, byID[w])
				if w == v {
					break
				}
			}
			if len(scc) > 1 {
				sccs = append(sccs, scc)
			}
		}
	}

	for _, id := range order {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}
	return sortGroups(sccs)
}

// WeakComponents implements ComponentFinder.
func (f *TarjanFinder) WeakComponents(nodes []*AtomNode) [][]*AtomNode {
	byID, order := indexNodes(nodes)

	parent := make(map[NodeID]NodeID, len(order))
	for _, id := range order {
		parent[id] = id
	}
	var find func(NodeID) NodeID
	find = func(x NodeID) NodeID {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}

	for _, id := range order {
		for _, d := range byID[id].succeeding {
			if _, member := byID[d.Target]; !member {
				continue
			}
			a, b := find(id), find(d.Target)
			if a != b {
				// keep the smaller id as root
				if b < a {
					a, b = b, a
				}
				parent[b] = a
			}
		}
	}

	groups := make(map[NodeID][]*AtomNode)
	for _, id := range order {
		root := find(id)
		groups[root] = append(groups[root], byID[id])
	}
	var wccs [][]*AtomNode
	for _, g := range groups {
		if len(g) > 1 {
			wccs = append(wccs, g)
		}
	}
	return sortGroups(wccs)
}

func indexNodes(nodes []*AtomNode) (map[NodeID]*AtomNode, []NodeID) {
	byID := make(map[NodeID]*AtomNode, len(nodes))
	order := make([]NodeID, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.id]; dup {
			continue
		}
		byID[n.id] = n
		order = append(order, n.id)
	}
	slices.Sort(order)
	return byID, order
}

func sortGroups(groups [][]*AtomNode) [][]*AtomNode {
	for _, g := range groups {
		slices.SortFunc(g, func(a, b *AtomNode) int { return int(a.id - b.id) })
	}
	slices.SortFunc(groups, func(a, b []*AtomNode) int { return int(a[0].id - b[0].id) })
	return groups
}
