package ir

import (
	"slices"
	"strconv"
	"strings"
)

// InternalPrefix marks predicates synthesized by the evaluator. User
// programs may not use it.
const InternalPrefix = "__"

// Synthesized predicate names.
const (
	replacementPrefix   = InternalPrefix + "ext_"
	auxPrefix           = InternalPrefix + "aux_"
	ConstraintPredicate = InternalPrefix + "constraint"
)

// IsInternalPredicate reports whether pred is reserved for synthesized atoms.
func IsInternalPredicate(pred string) bool {
	return strings.HasPrefix(pred, InternalPrefix)
}

// ReplacementPredicate returns the replacement predicate of external function fn.
func ReplacementPredicate(fn string) string { return replacementPrefix + fn }

// IsReplacementPredicate reports whether pred stands in for an external atom.
func IsReplacementPredicate(pred string) bool {
	return strings.HasPrefix(pred, replacementPrefix)
}

// AuxPredicate returns the n-th auxiliary input predicate.
func AuxPredicate(n int) string { return auxPrefix + strconv.Itoa(n) }

// ConstraintAtom returns the synthesized head standing in for constraint r.
func ConstraintAtom(ruleIndex int) Atom {
	return NewAtom(ConstraintPredicate, Int(int64(ruleIndex)))
}

// Rule is a disjunctive rule h1 v ... v hn :- b1, ..., bm.
// A rule without head is a constraint; without body it is a (disjunctive) fact.
type Rule struct {
	Head []Atom
	Body []Literal
}

// NewRule builds a rule.
func NewRule(head []Atom, body ...Literal) *Rule {
	return &Rule{Head: head, Body: body}
}

// NewConstraint builds a rule without head.
func NewConstraint(body ...Literal) *Rule {
	return &Rule{Body: body}
}

// IsConstraint reports whether r has no head.
func (r *Rule) IsConstraint() bool { return len(r.Head) == 0 }

// IsDisjunctive reports whether r has more than one head atom.
func (r *Rule) IsDisjunctive() bool { return len(r.Head) > 1 }

// Variables returns the distinct variables of r, sorted.
func (r *Rule) Variables() []string {
	var vars []string
	for _, h := range r.Head {
		vars = termVariables(vars, h.Args)
	}
	for _, l := range r.Body {
		for _, v := range l.Atom.Variables() {
			if !slices.Contains(vars, v) {
				vars = append(vars, v)
			}
		}
	}
	slices.Sort(vars)
	return vars
}

// Externals returns the external atoms of the body in order.
func (r *Rule) Externals() []ExternalAtom {
	var out []ExternalAtom
	for _, l := range r.Body {
		if e, ok := l.Atom.(ExternalAtom); ok {
			out = append(out, e)
		}
	}
	return out
}

// HasExternals reports whether any body literal is an external atom.
func (r *Rule) HasExternals() bool {
	for _, l := range r.Body {
		if _, ok := l.Atom.(ExternalAtom); ok {
			return true
		}
	}
	return false
}

// ReplaceExternals returns r with every external literal replaced by its
// replacement atom. r is returned unchanged when it has no external atoms.
func (r *Rule) ReplaceExternals() *Rule {
	if !r.HasExternals() {
		return r
	}
	out := &Rule{Head: r.Head, Body: make([]Literal, len(r.Body))}
	for i, l := range r.Body {
		if e, ok := l.Atom.(ExternalAtom); ok {
			out.Body[i] = Literal{Atom: e.Replacement(), NAF: l.NAF}
			continue
		}
		out.Body[i] = l
	}
	return out
}

func (r *Rule) String() string {
	var b strings.Builder
	for i, h := range r.Head {
		if i > 0 {
			b.WriteString(" v ")
		}
		b.WriteString(h.String())
	}
	if len(r.Body) > 0 {
		if len(r.Head) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(":- ")
		for i, l := range r.Body {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(l.String())
		}
	}
	b.WriteByte('.')
	return b.String()
}

// Program is a set of rules plus the extensional facts they are evaluated against.
type Program struct {
	Rules []*Rule
	Facts []Atom
}

// EDB returns the facts as an interpretation.
func (p *Program) EDB() Interpretation {
	return NewInterpretation(p.Facts...)
}

func (p *Program) String() string {
	var b strings.Builder
	for _, f := range p.Facts {
		b.WriteString(f.String())
		b.WriteString(".\n")
	}
	for _, r := range p.Rules {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}
