package oracle

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hexeval/internal/ir"
)

// GroundProgram is a rule set instantiated over a finite domain and
// simplified against the facts. Atoms that are facts never occur in Rules.
type GroundProgram struct {
	Facts ir.Interpretation
	Rules []GroundRule

	// Inconsistent is set when the facts alone violate a constraint or
	// contain an atom together with its strong negation.
	Inconsistent bool
}

// GroundRule is one instance of a rule. An empty Head is a constraint.
type GroundRule struct {
	Head []ir.Atom
	Pos  []ir.Atom
	Neg  []ir.Atom
	Aggs []GroundAggregate
}

// BodyEmpty reports whether the body was simplified away.
func (r GroundRule) BodyEmpty() bool {
	return len(r.Pos) == 0 && len(r.Neg) == 0 && len(r.Aggs) == 0
}

func (r GroundRule) key() string {
	var b strings.Builder
	for _, h := range r.Head {
		b.WriteString(h.Key())
		b.WriteByte('|')
	}
	b.WriteString(":-")
	for _, a := range r.Pos {
		b.WriteString(a.Key())
		b.WriteByte(',')
	}
	for _, a := range r.Neg {
		b.WriteString("~" + a.Key())
		b.WriteByte(',')
	}
	for _, g := range r.Aggs {
		b.WriteString(g.key())
		b.WriteByte(',')
	}
	return b.String()
}

// GroundAggregate is an aggregate instance whose elements still depend on
// non-fact atoms.
type GroundAggregate struct {
	Function string
	Op       string
	Bound    ir.Term
	NAF      bool
	Elements []AggregateElement
}

// AggregateElement contributes Tuple when every Pos atom holds and no Neg
// atom does.
type AggregateElement struct {
	Tuple []ir.Term
	Pos   []ir.Atom
	Neg   []ir.Atom
}

func (g GroundAggregate) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s{", g.Function)
	for _, e := range g.Elements {
		for _, t := range e.Tuple {
			b.WriteString(t.String())
			b.WriteByte(' ')
		}
		b.WriteByte(':')
		for _, a := range e.Pos {
			b.WriteString(a.Key() + " ")
		}
		for _, a := range e.Neg {
			b.WriteString("~" + a.Key() + " ")
		}
		b.WriteByte(';')
	}
	fmt.Fprintf(&b, "}%s%s", g.Op, g.Bound)
	return b.String()
}

// Holds evaluates the aggregate, ignoring NAF, under the atoms true in m.
// An undefined value (min of nothing) never satisfies the comparison.
func (g GroundAggregate) Holds(m func(ir.Atom) bool) bool {
	seen := make(map[string]bool)
	var tuples [][]ir.Term
	for _, e := range g.Elements {
		if !conditionHolds(e.Pos, e.Neg, m) {
			continue
		}
		k := termsKey(e.Tuple)
		if seen[k] {
			continue
		}
		seen[k] = true
		tuples = append(tuples, e.Tuple)
	}
	v, ok := ir.AggregateValue(g.Function, tuples)
	return ok && ir.CompareWith(g.Op, v, g.Bound)
}

// Atoms returns the atoms the aggregate's value depends on.
func (g GroundAggregate) Atoms() []ir.Atom {
	var out []ir.Atom
	for _, e := range g.Elements {
		out = append(out, e.Pos...)
		out = append(out, e.Neg...)
	}
	return out
}

func conditionHolds(pos, neg []ir.Atom, m func(ir.Atom) bool) bool {
	for _, a := range pos {
		if !m(a) {
			return false
		}
	}
	for _, a := range neg {
		if m(a) {
			return false
		}
	}
	return true
}

func termsKey(ts []ir.Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// atomIndex is a set of ground atoms indexed by signature.
type atomIndex struct {
	set   ir.Interpretation
	bySig map[string][]ir.Atom
}

func newAtomIndex(atoms ir.Interpretation) *atomIndex {
	x := &atomIndex{set: ir.NewInterpretation(), bySig: make(map[string][]ir.Atom)}
	for _, a := range atoms.Atoms() {
		x.add(a)
	}
	return x
}

func (x *atomIndex) add(a ir.Atom) bool {
	if !x.set.Insert(a) {
		return false
	}
	x.bySig[a.Signature()] = append(x.bySig[a.Signature()], a)
	return true
}

// Ground instantiates rules over the atoms derivable from facts. Rules must
// not contain external atoms.
func Ground(rules []*ir.Rule, facts ir.Interpretation) (*GroundProgram, error) {
	for _, r := range rules {
		if err := checkRule(r); err != nil {
			return nil, ir.NewOracleError(err.Error(), r.String(), nil)
		}
	}
	for _, a := range facts.Atoms() {
		if !a.IsGround() {
			return nil, ir.NewOracleError(fmt.Sprintf("fact %s is not ground", a), "", nil)
		}
	}

	gp := &GroundProgram{Facts: facts}
	for _, a := range facts.Atoms() {
		if a.Negated && facts.Contains(a.Neg()) {
			gp.Inconsistent = true
			return gp, nil
		}
	}

	dom := domain(rules, facts)

	seen := make(map[string]bool)
	for _, r := range rules {
		for _, s := range matches(r.Body, dom, ir.Substitution{}) {
			gr, keep := instantiate(r, s, dom, facts)
			if !keep {
				continue
			}
			if gr.BodyEmpty() && len(gr.Head) == 0 {
				gp.Inconsistent = true
				return gp, nil
			}
			if k := gr.key(); !seen[k] {
				seen[k] = true
				gp.Rules = append(gp.Rules, gr)
			}
		}
	}
	return gp, nil
}

// domain over-approximates the derivable atoms: the least model of the
// rules with negative and aggregate literals dropped.
func domain(rules []*ir.Rule, facts ir.Interpretation) *atomIndex {
	dom := newAtomIndex(facts)
	for changed := true; changed; {
		changed = false
		for _, r := range rules {
			var derived []ir.Atom
			for _, s := range matches(r.Body, dom, ir.Substitution{}) {
				for _, h := range r.Head {
					derived = append(derived, h.Substitute(s))
				}
			}
			for _, a := range derived {
				if dom.add(a) {
					changed = true
				}
			}
		}
	}
	return dom
}

// matches returns every extension of base under which the positive
// ordinary literals of body are in dom and its builtins hold.
func matches(body []ir.Literal, dom *atomIndex, base ir.Substitution) []ir.Substitution {
	var (
		positives []ir.Atom
		builtins  []ir.Literal
	)
	for _, l := range body {
		switch a := l.Atom.(type) {
		case ir.Atom:
			if !l.NAF {
				positives = append(positives, a)
			}
		case ir.BuiltinAtom:
			builtins = append(builtins, l)
		}
	}

	var out []ir.Substitution
	var walk func(i int, s ir.Substitution)
	walk = func(i int, s ir.Substitution) {
		s, ok := applyBuiltins(builtins, s, i == len(positives))
		if !ok {
			return
		}
		if i == len(positives) {
			out = append(out, s)
			return
		}
		p := positives[i]
		for _, g := range dom.bySig[p.Signature()] {
			if next, ok := ir.Match(p, g, s); ok {
				walk(i+1, next)
			}
		}
	}
	walk(0, base)
	return out
}

// applyBuiltins evaluates every builtin whose operands are bound and binds
// the free side of positive equalities. With final set, a builtin left
// unbound fails the match.
func applyBuiltins(builtins []ir.Literal, s ir.Substitution, final bool) (ir.Substitution, bool) {
	for progress := true; progress; {
		progress = false
		for _, l := range builtins {
			b := l.Atom.(ir.BuiltinAtom)
			holds, bound := b.Holds(s)
			if bound {
				if holds == l.NAF {
					return nil, false
				}
				continue
			}
			if l.NAF || b.Op != ir.OpEq {
				continue
			}
			left, right := s.Apply(b.Left), s.Apply(b.Right)
			switch {
			case left.IsVariable() && right.IsGround():
				s = s.Clone()
				s[left.Name] = right
				progress = true
			case right.IsVariable() && left.IsGround():
				s = s.Clone()
				s[right.Name] = left
				progress = true
			}
		}
	}
	if final {
		for _, l := range builtins {
			if _, bound := l.Atom.(ir.BuiltinAtom).Holds(s); !bound {
				return nil, false
			}
		}
	}
	return s, true
}

// instantiate builds the ground instance of r under s, simplified against
// the facts. keep is false when the instance can never fire or is already
// satisfied by the facts.
func instantiate(r *ir.Rule, s ir.Substitution, dom *atomIndex, facts ir.Interpretation) (GroundRule, bool) {
	var gr GroundRule
	for _, h := range r.Head {
		h = h.Substitute(s)
		if facts.Contains(h) {
			return GroundRule{}, false
		}
		gr.Head = append(gr.Head, h)
	}
	for _, l := range r.Body {
		switch a := l.Atom.(type) {
		case ir.Atom:
			g := a.Substitute(s)
			switch {
			case !l.NAF && facts.Contains(g):
			case !l.NAF:
				gr.Pos = append(gr.Pos, g)
			case facts.Contains(g):
				return GroundRule{}, false
			case dom.set.Contains(g):
				gr.Neg = append(gr.Neg, g)
			}
		case ir.AggregateAtom:
			agg, decided, holds := groundAggregate(a, l.NAF, s, dom, facts)
			if decided {
				if !holds {
					return GroundRule{}, false
				}
				continue
			}
			gr.Aggs = append(gr.Aggs, agg)
		}
	}
	return gr, true
}

// groundAggregate instantiates the elements of a under s. When no element
// depends on a non-fact atom the literal is decided: holds is its truth
// value, NAF included.
func groundAggregate(a ir.AggregateAtom, naf bool, s ir.Substitution, dom *atomIndex, facts ir.Interpretation) (GroundAggregate, bool, bool) {
	g := GroundAggregate{Function: a.Function, Op: a.Op, Bound: s.Apply(a.Bound), NAF: naf}
	decided := true
	for _, es := range matches(a.Body, dom, s) {
		e := AggregateElement{Tuple: make([]ir.Term, len(a.Terms))}
		for i, t := range a.Terms {
			e.Tuple[i] = es.Apply(t)
		}
		drop := false
		for _, l := range a.Body {
			at, ok := l.Ordinary()
			if !ok {
				continue
			}
			ga := at.Substitute(es)
			switch {
			case !l.NAF && facts.Contains(ga):
			case !l.NAF:
				e.Pos = append(e.Pos, ga)
			case facts.Contains(ga):
				drop = true
			case dom.set.Contains(ga):
				e.Neg = append(e.Neg, ga)
			}
		}
		if drop {
			continue
		}
		if len(e.Pos) > 0 || len(e.Neg) > 0 {
			decided = false
		}
		g.Elements = append(g.Elements, e)
	}
	slices.SortFunc(g.Elements, func(x, y AggregateElement) int {
		return strings.Compare(termsKey(x.Tuple), termsKey(y.Tuple))
	})
	if !decided {
		return g, false, false
	}
	return g, true, g.Holds(func(ir.Atom) bool { return false }) != naf
}

// checkRule rejects external atoms and unsafe variables.
func checkRule(r *ir.Rule) error {
	bound := make(map[string]bool)
	for _, l := range r.Body {
		switch a := l.Atom.(type) {
		case ir.ExternalAtom:
			return fmt.Errorf("external atom %s reached the oracle", a)
		case ir.Atom:
			if !l.NAF {
				for _, v := range a.Variables() {
					bound[v] = true
				}
			}
		}
	}
	bindEqualities(r.Body, bound)

	var unsafe []string
	need := func(vars []string) {
		for _, v := range vars {
			if !bound[v] && !slices.Contains(unsafe, v) {
				unsafe = append(unsafe, v)
			}
		}
	}
	for _, h := range r.Head {
		need(h.Variables())
	}
	for _, l := range r.Body {
		switch a := l.Atom.(type) {
		case ir.Atom:
			need(a.Variables())
		case ir.BuiltinAtom:
			need(a.Variables())
		case ir.AggregateAtom:
			need(termVars(a.Bound))
			need(localUnsafe(a, bound))
		}
	}
	if len(unsafe) > 0 {
		slices.Sort(unsafe)
		return fmt.Errorf("unsafe variables %s", strings.Join(unsafe, ", "))
	}
	return nil
}

// localUnsafe returns the variables of an aggregate element that neither
// the enclosing rule nor the element's positive literals bind.
func localUnsafe(a ir.AggregateAtom, outer map[string]bool) []string {
	bound := make(map[string]bool, len(outer))
	for v := range outer {
		bound[v] = true
	}
	for _, l := range a.Body {
		if at, ok := l.Ordinary(); ok && !l.NAF {
			for _, v := range at.Variables() {
				bound[v] = true
			}
		}
	}
	bindEqualities(a.Body, bound)
	var out []string
	for _, v := range termVarsOf(a.Terms) {
		if !bound[v] {
			out = append(out, v)
		}
	}
	for _, l := range a.Body {
		for _, v := range l.Atom.Variables() {
			if !bound[v] {
				out = append(out, v)
			}
		}
	}
	return out
}

// bindEqualities marks variables bound through positive equalities.
func bindEqualities(body []ir.Literal, bound map[string]bool) {
	for progress := true; progress; {
		progress = false
		for _, l := range body {
			b, ok := l.Atom.(ir.BuiltinAtom)
			if !ok || l.NAF || b.Op != ir.OpEq {
				continue
			}
			lb := b.Left.IsGround() || bound[b.Left.Name]
			rb := b.Right.IsGround() || bound[b.Right.Name]
			switch {
			case lb && !rb:
				bound[b.Right.Name] = true
				progress = true
			case rb && !lb:
				bound[b.Left.Name] = true
				progress = true
			}
		}
	}
}

func termVars(t ir.Term) []string {
	if t.IsVariable() {
		return []string{t.Name}
	}
	return nil
}

func termVarsOf(ts []ir.Term) []string {
	var out []string
	for _, t := range ts {
		out = append(out, termVars(t)...)
	}
	return out
}
