package ir

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// BodyAtom is a sealed interface over the atom variants that may occur in a
// rule body and be wrapped by a dependency-graph node. Only Atom,
// ExternalAtom, AggregateAtom and BuiltinAtom implement it.
//
// Consumers dispatch with a type switch:
//
//	switch a := b.(type) {
//	case Atom:
//	case ExternalAtom:
//	case AggregateAtom:
//	case BuiltinAtom:
//	}
type BodyAtom interface {
	bodyAtom()

	// Key is a string uniquely identifying the atom value, including its variant.
	Key() string
	String() string
	// Variables returns the distinct variable names in order of first occurrence.
	Variables() []string
}

// Atom is an ordinary atom: predicate, argument tuple and strong negation flag.
// It is the only variant that can be a rule head or an interpretation member.
type Atom struct {
	Predicate string
	Args      []Term
	Negated   bool
}

func (Atom) bodyAtom() {}

// NewAtom builds an ordinary atom.
func NewAtom(predicate string, args ...Term) Atom {
	return Atom{Predicate: predicate, Args: args}
}

// ParseAtom builds an ordinary atom from term strings, classifying each
// argument with ParseTerm. A leading "-" on the predicate marks strong negation.
func ParseAtom(predicate string, args ...string) Atom {
	a := Atom{Predicate: predicate}
	if strings.HasPrefix(predicate, "-") {
		a.Predicate = predicate[1:]
		a.Negated = true
	}
	if len(args) > 0 {
		a.Args = make([]Term, len(args))
		for i, s := range args {
			a.Args[i] = ParseTerm(s)
		}
	}
	return a
}

// Neg returns the strongly negated twin of a.
func (a Atom) Neg() Atom {
	return Atom{Predicate: a.Predicate, Args: a.Args, Negated: !a.Negated}
}

// Arity returns the number of arguments.
func (a Atom) Arity() int { return len(a.Args) }

// IsGround reports whether no argument is a variable.
func (a Atom) IsGround() bool {
	for _, t := range a.Args {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// IsInternal reports whether the predicate is reserved for synthesized atoms.
func (a Atom) IsInternal() bool { return IsInternalPredicate(a.Predicate) }

// Key returns the canonical string identity of a.
func (a Atom) Key() string { return a.String() }

// Signature identifies the predicate, strong negation and arity, e.g. "-p/2".
func (a Atom) Signature() string {
	var b strings.Builder
	if a.Negated {
		b.WriteByte('-')
	}
	b.WriteString(a.Predicate)
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(len(a.Args)))
	return b.String()
}

func (a Atom) String() string {
	var b strings.Builder
	if a.Negated {
		b.WriteByte('-')
	}
	b.WriteString(a.Predicate)
	if len(a.Args) > 0 {
		b.WriteByte('(')
		writeTerms(&b, a.Args)
		b.WriteByte(')')
	}
	return b.String()
}

// Variables returns the distinct variable names of a.
func (a Atom) Variables() []string { return termVariables(nil, a.Args) }

// Equal reports structural equality.
func (a Atom) Equal(b Atom) bool { return CompareAtoms(a, b) == 0 }

// Substitute applies s to every argument.
func (a Atom) Substitute(s Substitution) Atom {
	if len(s) == 0 || len(a.Args) == 0 {
		return a
	}
	out := Atom{Predicate: a.Predicate, Negated: a.Negated, Args: make([]Term, len(a.Args))}
	for i, t := range a.Args {
		out.Args[i] = s.Apply(t)
	}
	return out
}

// CompareAtoms orders atoms by predicate, negation, arity and arguments.
func CompareAtoms(a, b Atom) int {
	if c := strings.Compare(a.Predicate, b.Predicate); c != 0 {
		return c
	}
	if a.Negated != b.Negated {
		if a.Negated {
			return 1
		}
		return -1
	}
	if c := cmp.Compare(len(a.Args), len(b.Args)); c != 0 {
		return c
	}
	for i := range a.Args {
		if c := CompareTerms(a.Args[i], b.Args[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Match extends s so that pattern instantiated by it equals ground.
// s is not modified; the extended substitution is returned.
func Match(pattern, ground Atom, s Substitution) (Substitution, bool) {
	if pattern.Predicate != ground.Predicate || pattern.Negated != ground.Negated || len(pattern.Args) != len(ground.Args) {
		return nil, false
	}
	out := s
	cloned := false
	for i, p := range pattern.Args {
		g := ground.Args[i]
		if !p.IsVariable() {
			if p != g {
				return nil, false
			}
			continue
		}
		if cur, ok := out[p.Name]; ok {
			if cur != g {
				return nil, false
			}
			continue
		}
		if !cloned {
			out = s.Clone()
			cloned = true
		}
		out[p.Name] = g
	}
	if out == nil {
		out = Substitution{}
	}
	return out, true
}

// Unify reports whether a and b have a common instance. The variables of a
// and b are treated as distinct even when they share names.
func Unify(a, b Atom) bool {
	if a.Predicate != b.Predicate || a.Negated != b.Negated || len(a.Args) != len(b.Args) {
		return false
	}
	u := unifier{parent: map[string]string{}}
	for i := range a.Args {
		if !u.union(unifierKey("l", a.Args[i]), unifierKey("r", b.Args[i])) {
			return false
		}
	}
	return true
}

type unifier struct {
	parent map[string]string
}

func unifierKey(side string, t Term) string {
	if t.IsVariable() {
		return "v/" + side + "/" + t.Name
	}
	return "c/" + strconv.Itoa(int(t.Kind)) + "/" + t.String()
}

func (u unifier) find(x string) string {
	for {
		p, ok := u.parent[x]
		if !ok || p == x {
			return x
		}
		x = p
	}
}

func (u unifier) union(x, y string) bool {
	rx, ry := u.find(x), u.find(y)
	if rx == ry {
		return true
	}
	cx, cy := strings.HasPrefix(rx, "c/"), strings.HasPrefix(ry, "c/")
	switch {
	case cx && cy:
		return false
	case cx:
		u.parent[ry] = rx
	default:
		u.parent[rx] = ry
	}
	return true
}

// InputKind says how an external atom input is handed to its plugin.
type InputKind uint8

const (
	// InputConstant passes the term through unchanged.
	InputConstant InputKind = iota
	// InputPredicate names a predicate whose facts are passed along.
	InputPredicate
)

func (k InputKind) String() string {
	if k == InputPredicate {
		return "predicate"
	}
	return "constant"
}

// ExternalAtom is an atom &f[inputs](outputs) computed by a plugin.
// External atoms never unify with anything.
type ExternalAtom struct {
	Function string
	Inputs   []Term
	Outputs  []Term

	// InputKinds is resolved from the plugin registry when the program is
	// compiled. Missing entries are treated as InputConstant.
	InputKinds []InputKind

	// AuxPredicate names the auxiliary predicate whose facts ground a
	// non-ground input list. Empty when the input list is ground.
	AuxPredicate string

	// Nonmonotonic is set when adding facts to a predicate input may
	// remove tuples from the result. Resolved from the plugin registry.
	Nonmonotonic bool
}

func (ExternalAtom) bodyAtom() {}

// InputKindAt returns the kind of input i.
func (e ExternalAtom) InputKindAt(i int) InputKind {
	if i < len(e.InputKinds) {
		return e.InputKinds[i]
	}
	return InputConstant
}

// InputPredicates returns the predicate names passed as PREDICATE inputs.
func (e ExternalAtom) InputPredicates() []string {
	var out []string
	for i, t := range e.Inputs {
		if e.InputKindAt(i) == InputPredicate && t.IsGround() && !slices.Contains(out, t.Name) {
			out = append(out, t.Name)
		}
	}
	return out
}

// HasGroundInput reports whether the input list contains no variables.
func (e ExternalAtom) HasGroundInput() bool {
	for _, t := range e.Inputs {
		if t.IsVariable() {
			return false
		}
	}
	return true
}

// ReplacementPredicate is the ordinary predicate standing in for e.
func (e ExternalAtom) ReplacementPredicate() string {
	return ReplacementPredicate(e.Function)
}

// Replacement returns the ordinary atom __ext_f(inputs..., outputs...).
func (e ExternalAtom) Replacement() Atom {
	args := make([]Term, 0, len(e.Inputs)+len(e.Outputs))
	args = append(args, e.Inputs...)
	args = append(args, e.Outputs...)
	return Atom{Predicate: e.ReplacementPredicate(), Args: args}
}

// AuxAtom returns the auxiliary atom carrying e's input list.
func (e ExternalAtom) AuxAtom() Atom {
	return Atom{Predicate: e.AuxPredicate, Args: e.Inputs}
}

func (e ExternalAtom) Key() string { return e.String() }

func (e ExternalAtom) String() string {
	var b strings.Builder
	b.WriteByte('&')
	b.WriteString(e.Function)
	b.WriteByte('[')
	writeTerms(&b, e.Inputs)
	b.WriteString("](")
	writeTerms(&b, e.Outputs)
	b.WriteByte(')')
	return b.String()
}

func (e ExternalAtom) Variables() []string {
	return termVariables(termVariables(nil, e.Inputs), e.Outputs)
}

// Comparison operators for builtin atoms and aggregate bounds.
const (
	OpEq = "="
	OpNe = "!="
	OpLt = "<"
	OpLe = "<="
	OpGt = ">"
	OpGe = ">="
)

// IsComparisonOp reports whether op is a supported comparison.
func IsComparisonOp(op string) bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// CompareWith evaluates l op r over ground terms.
func CompareWith(op string, l, r Term) bool {
	c := CompareTerms(l, r)
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// BuiltinAtom is a comparison between two terms. Builtins never unify.
type BuiltinAtom struct {
	Op          string
	Left, Right Term
}

func (BuiltinAtom) bodyAtom() {}

func (b BuiltinAtom) Key() string { return b.String() }

func (b BuiltinAtom) String() string {
	return b.Left.String() + " " + b.Op + " " + b.Right.String()
}

func (b BuiltinAtom) Variables() []string {
	return termVariables(nil, []Term{b.Left, b.Right})
}

// Holds evaluates the builtin under s. The second result is false when an
// operand is still unbound.
func (b BuiltinAtom) Holds(s Substitution) (bool, bool) {
	l, r := s.Apply(b.Left), s.Apply(b.Right)
	if l.IsVariable() || r.IsVariable() {
		return false, false
	}
	return CompareWith(b.Op, l, r), true
}

// Aggregate functions.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggMin   = "min"
	AggMax   = "max"
)

// IsAggregateFunction reports whether fn is a supported aggregate.
func IsAggregateFunction(fn string) bool {
	switch fn {
	case AggCount, AggSum, AggMin, AggMax:
		return true
	}
	return false
}

// AggregateAtom is #fn{Terms : Body} Op Bound. Its body holds ordinary and
// builtin literals only. Aggregates never unify.
type AggregateAtom struct {
	Function string
	Terms    []Term
	Body     []Literal
	Op       string
	Bound    Term
}

func (AggregateAtom) bodyAtom() {}

func (g AggregateAtom) Key() string { return g.String() }

func (g AggregateAtom) String() string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(g.Function)
	b.WriteByte('{')
	writeTerms(&b, g.Terms)
	b.WriteString(" : ")
	for i, l := range g.Body {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(l.String())
	}
	b.WriteString("} ")
	b.WriteString(g.Op)
	b.WriteByte(' ')
	b.WriteString(g.Bound.String())
	return b.String()
}

func (g AggregateAtom) Variables() []string {
	vars := termVariables(nil, g.Terms)
	for _, l := range g.Body {
		for _, v := range l.Atom.Variables() {
			if !slices.Contains(vars, v) {
				vars = append(vars, v)
			}
		}
	}
	return termVariables(vars, []Term{g.Bound})
}

// Atoms returns the ordinary atoms of the aggregate body with their NAF flags.
func (g AggregateAtom) Atoms() []Literal {
	var out []Literal
	for _, l := range g.Body {
		if _, ok := l.Atom.(Atom); ok {
			out = append(out, l)
		}
	}
	return out
}

// AggregateValue folds the element tuples with fn. The second result is
// false when the value is undefined (min or max over no elements, or a sum
// over a non-integer).
func AggregateValue(fn string, tuples [][]Term) (Term, bool) {
	switch fn {
	case AggCount:
		return Int(int64(len(tuples))), true
	case AggSum:
		var sum int64
		for _, t := range tuples {
			if len(t) == 0 || t[0].Kind != TermInteger {
				return Term{}, false
			}
			sum += t[0].Int
		}
		return Int(sum), true
	case AggMin, AggMax:
		if len(tuples) == 0 {
			return Term{}, false
		}
		best := tuples[0][0]
		for _, t := range tuples[1:] {
			c := CompareTerms(t[0], best)
			if (fn == AggMin && c < 0) || (fn == AggMax && c > 0) {
				best = t[0]
			}
		}
		return best, true
	}
	return Term{}, false
}

// Literal is a body atom, optionally under default negation ("not").
type Literal struct {
	Atom BodyAtom
	NAF  bool
}

// Pos returns a positive literal.
func Pos(a BodyAtom) Literal { return Literal{Atom: a} }

// Not returns a default-negated literal.
func Not(a BodyAtom) Literal { return Literal{Atom: a, NAF: true} }

func (l Literal) String() string {
	if l.NAF {
		return "not " + l.Atom.String()
	}
	return l.Atom.String()
}

// Ordinary returns the ordinary atom of l, if it is one.
func (l Literal) Ordinary() (Atom, bool) {
	a, ok := l.Atom.(Atom)
	return a, ok
}

func writeTerms(b *strings.Builder, ts []Term) {
	for i, t := range ts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
}

func termVariables(acc []string, ts []Term) []string {
	for _, t := range ts {
		if t.IsVariable() && !slices.Contains(acc, t.Name) {
			acc = append(acc, t.Name)
		}
	}
	return acc
}
