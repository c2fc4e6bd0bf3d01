package depgraph

import (
	"slices"

	"github.com/roach88/hexeval/internal/ir"
)

// Build creates the dependency graph of prog.
//
// Every external atom whose input list contains variables is given an
// auxiliary predicate and an auxiliary rule
//
//	__aux_N(inputs) :- <positive ordinary and builtin literals of its rule>.
//
// The auxiliary rules are appended after prog's rules; NodeGraph.Rules
// returns the extended list and node rule indices refer to it. prog itself
// is not modified.
func Build(prog *ir.Program) *NodeGraph {
	g := NewNodeGraph()
	g.rules = withAuxRules(prog.Rules)
	auxRules := len(prog.Rules)

	for ri, r := range g.rules {
		heads := make([]*AtomNode, 0, len(r.Head))
		if r.IsConstraint() {
			heads = append(heads, g.AddUniqueHeadNode(ir.ConstraintAtom(ri)))
		}
		for _, h := range r.Head {
			heads = append(heads, g.AddUniqueHeadNode(h))
		}
		for _, h := range heads {
			h.addRule(ri)
			if ri >= auxRules {
				h.aux = true
			}
		}

		for i, hi := range heads {
			for j, hj := range heads {
				if i != j {
					g.AddDependency(hi, hj, Disjunctive, ri)
				}
			}
		}

		for _, l := range r.Body {
			if _, ok := l.Atom.(ir.BuiltinAtom); ok {
				continue
			}
			b := g.AddUniqueBodyNode(l.Atom)
			for _, h := range heads {
				g.AddDependency(b, h, literalDependency(l), ri)
			}
			if agg, ok := l.Atom.(ir.AggregateAtom); ok {
				for _, inner := range agg.Atoms() {
					ib := g.AddUniqueBodyNode(inner.Atom)
					g.AddDependency(ib, b, literalDependency(inner), ri)
				}
			}
		}
	}

	g.linkExternals()
	return g
}

func literalDependency(l ir.Literal) DependencyType {
	if l.NAF {
		return NegPreceding
	}
	return Preceding
}

// linkExternals adds External edges from the head nodes of every
// predicate input, and ExternalAux edges from auxiliary input nodes.
func (g *NodeGraph) linkExternals() {
	heads := make(map[string][]*AtomNode)
	for _, n := range g.nodes {
		if a, ok := n.atom.(ir.Atom); ok && n.head && !a.Negated {
			heads[a.Predicate] = append(heads[a.Predicate], n)
		}
	}
	for _, n := range g.nodes {
		e, ok := n.External()
		if !ok {
			continue
		}
		for _, pred := range e.InputPredicates() {
			for _, h := range heads[pred] {
				g.AddDependency(h, n, External, NoRule)
			}
		}
		if e.AuxPredicate != "" {
			for _, h := range heads[e.AuxPredicate] {
				g.AddDependency(h, n, ExternalAux, NoRule)
			}
		}
	}
}

// withAuxRules returns rules with auxiliary predicates assigned to
// non-ground external atoms, followed by the auxiliary rules. Identical
// external atoms share one auxiliary predicate.
func withAuxRules(rules []*ir.Rule) []*ir.Rule {
	out := slices.Clone(rules)
	auxByKey := make(map[string]string)
	var aux []*ir.Rule

	for ri, r := range rules {
		var rewritten *ir.Rule
		for li, l := range r.Body {
			e, ok := l.Atom.(ir.ExternalAtom)
			if !ok || e.HasGroundInput() {
				continue
			}
			pred, seen := auxByKey[e.Key()]
			if !seen {
				pred = ir.AuxPredicate(len(auxByKey))
				auxByKey[e.Key()] = pred
			}
			e.AuxPredicate = pred
			if rewritten == nil {
				rewritten = &ir.Rule{Head: r.Head, Body: slices.Clone(r.Body)}
			}
			rewritten.Body[li] = ir.Literal{Atom: e, NAF: l.NAF}
			aux = append(aux, ir.NewRule([]ir.Atom{e.AuxAtom()}, auxBody(r)...))
		}
		if rewritten != nil {
			out[ri] = rewritten
		}
	}
	return append(out, aux...)
}

// auxBody keeps the positive ordinary literals of r and the builtins whose
// variables they bind.
func auxBody(r *ir.Rule) []ir.Literal {
	var body []ir.Literal
	bound := make(map[string]bool)
	for _, l := range r.Body {
		if a, ok := l.Ordinary(); ok && !l.NAF {
			body = append(body, l)
			for _, v := range a.Variables() {
				bound[v] = true
			}
		}
	}
	for _, l := range r.Body {
		b, ok := l.Atom.(ir.BuiltinAtom)
		if !ok {
			continue
		}
		covered := true
		for _, v := range b.Variables() {
			covered = covered && bound[v]
		}
		if covered {
			body = append(body, l)
		}
	}
	return body
}
