package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
)

// Validation error codes (E200-E299)
const (
	ErrSyntax            = "E200" // fact, rule or literal does not parse
	ErrNonGroundFact     = "E201" // fact contains a variable
	ErrUnsafeVariable    = "E202" // variable not bound by a positive body literal
	ErrUnknownExternal   = "E203" // no plugin atom registered under the name
	ErrInputArity        = "E204" // wrong number of external inputs
	ErrOutputArity       = "E205" // wrong number of external outputs
	ErrPredicateInput    = "E206" // predicate input is not a predicate name
	ErrReservedPredicate = "E207" // predicate uses the internal "__" prefix
	ErrEmptyRule         = "E208" // rule has neither head nor body
)

// ValidationError is one problem found in a program.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Rule    string `json:"rule,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Resolve binds every external atom of prog to its plugin atom in reg,
// copying the input kinds and the nonmonotonic flag onto the atom. prog is
// updated in place. Unknown names and arity mismatches are reported; the
// offending atoms are left unresolved.
func Resolve(prog *ir.Program, reg *plugin.Registry) []ValidationError {
	if reg == nil {
		reg = plugin.NewRegistry()
	}
	var errs []ValidationError
	for i, r := range prog.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		for j, l := range r.Body {
			e, ok := l.Atom.(ir.ExternalAtom)
			if !ok {
				continue
			}
			fail := func(code, format string, args ...any) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.body[%d]", field, j),
					Message: fmt.Sprintf(format, args...),
					Code:    code,
					Rule:    r.String(),
				})
			}

			pa, found := reg.Lookup(e.Function)
			if !found {
				fail(ErrUnknownExternal, "unknown external atom &%s (registered: %s)", e.Function, strings.Join(reg.Names(), ", "))
				continue
			}
			if len(e.Inputs) != len(pa.InputKinds) {
				fail(ErrInputArity, "&%s takes %d inputs, got %d", e.Function, len(pa.InputKinds), len(e.Inputs))
				continue
			}
			if len(e.Outputs) != pa.OutputArity {
				fail(ErrOutputArity, "&%s has %d outputs, got %d", e.Function, pa.OutputArity, len(e.Outputs))
				continue
			}
			valid := true
			for k, kind := range pa.InputKinds {
				if kind == ir.InputPredicate && e.Inputs[k].Kind != ir.TermConstant {
					fail(ErrPredicateInput, "input %d of &%s must be a predicate name, got %s", k+1, e.Function, e.Inputs[k])
					valid = false
				}
			}
			if !valid {
				continue
			}

			e.InputKinds = slices.Clone(pa.InputKinds)
			e.Nonmonotonic = pa.Nonmonotonic
			r.Body[j] = ir.Literal{Atom: e, NAF: l.NAF}
		}
	}
	return errs
}

// Validate checks prog for reserved predicate names and unsafe variables.
// Returns all errors found (does not fail-fast).
func Validate(prog *ir.Program) []ValidationError {
	var errs []ValidationError
	for i, f := range prog.Facts {
		if f.IsInternal() {
			errs = append(errs, reserved(fmt.Sprintf("facts[%d]", i), f.Predicate, ""))
		}
	}
	for i, r := range prog.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if len(r.Head) == 0 && len(r.Body) == 0 {
			errs = append(errs, ValidationError{Field: field, Message: "rule has no head and no body", Code: ErrEmptyRule})
			continue
		}
		for _, pred := range rulePredicates(r) {
			if ir.IsInternalPredicate(pred) {
				errs = append(errs, reserved(field, pred, r.String()))
			}
		}
		if unsafe := unsafeVariables(r); len(unsafe) > 0 {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("unsafe variables %s", strings.Join(unsafe, ", ")),
				Code:    ErrUnsafeVariable,
				Rule:    r.String(),
			})
		}
	}
	return errs
}

func reserved(field, pred, rule string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("predicate %s uses the reserved prefix %q", pred, ir.InternalPrefix),
		Code:    ErrReservedPredicate,
		Rule:    rule,
	}
}

// rulePredicates lists the distinct predicates and external function names
// written in r.
func rulePredicates(r *ir.Rule) []string {
	var out []string
	add := func(p string) {
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	for _, h := range r.Head {
		add(h.Predicate)
	}
	for _, l := range r.Body {
		switch a := l.Atom.(type) {
		case ir.Atom:
			add(a.Predicate)
		case ir.ExternalAtom:
			add(a.Function)
			for _, t := range a.Inputs {
				if t.Kind == ir.TermConstant {
					add(t.Name)
				}
			}
		case ir.AggregateAtom:
			for _, inner := range a.Atoms() {
				add(inner.Atom.(ir.Atom).Predicate)
			}
		}
	}
	return out
}

// unsafeVariables returns the sorted variables of r that no positive body
// literal binds. Positive ordinary atoms bind their variables. External
// inputs must be bound by ordinary atoms alone, since they are grounded
// from an auxiliary rule over those atoms; a positive external then binds
// its outputs. Equalities bind a variable from a bound or ground side.
func unsafeVariables(r *ir.Rule) []string {
	bound := make(map[string]bool)
	for _, l := range r.Body {
		if a, ok := l.Ordinary(); ok && !l.NAF {
			bindAll(bound, a.Variables())
		}
	}

	var unsafe []string
	need := func(vars []string) {
		for _, v := range vars {
			if !bound[v] && !slices.Contains(unsafe, v) {
				unsafe = append(unsafe, v)
			}
		}
	}

	for _, e := range r.Externals() {
		need(termVars(e.Inputs))
	}
	for _, l := range r.Body {
		if e, ok := l.Atom.(ir.ExternalAtom); ok && !l.NAF {
			bindAll(bound, termVars(e.Outputs))
		}
	}
	bindEqualities(r.Body, bound)

	for _, h := range r.Head {
		need(h.Variables())
	}
	for _, l := range r.Body {
		switch a := l.Atom.(type) {
		case ir.AggregateAtom:
			need(termVars([]ir.Term{a.Bound}))
			need(aggregateUnsafe(a, bound))
		default:
			need(a.Variables())
		}
	}
	slices.Sort(unsafe)
	return unsafe
}

// aggregateUnsafe returns the variables of an aggregate element that
// neither the rule nor the element's positive atoms bind.
func aggregateUnsafe(a ir.AggregateAtom, outer map[string]bool) []string {
	bound := make(map[string]bool, len(outer))
	for v := range outer {
		bound[v] = true
	}
	for _, l := range a.Body {
		if at, ok := l.Ordinary(); ok && !l.NAF {
			bindAll(bound, at.Variables())
		}
	}
	bindEqualities(a.Body, bound)

	var out []string
	vars := termVars(a.Terms)
	for _, l := range a.Body {
		vars = append(vars, l.Atom.Variables()...)
	}
	for _, v := range vars {
		if !bound[v] && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// bindEqualities marks variables bound through positive equalities until
// nothing changes.
func bindEqualities(body []ir.Literal, bound map[string]bool) {
	isBound := func(t ir.Term) bool { return t.IsGround() || bound[t.Name] }
	for changed := true; changed; {
		changed = false
		for _, l := range body {
			b, ok := l.Atom.(ir.BuiltinAtom)
			if !ok || l.NAF || b.Op != ir.OpEq {
				continue
			}
			switch {
			case b.Left.IsVariable() && !bound[b.Left.Name] && isBound(b.Right):
				bound[b.Left.Name], changed = true, true
			case b.Right.IsVariable() && !bound[b.Right.Name] && isBound(b.Left):
				bound[b.Right.Name], changed = true, true
			}
		}
	}
}

func bindAll(bound map[string]bool, vars []string) {
	for _, v := range vars {
		bound[v] = true
	}
}

func termVars(ts []ir.Term) []string {
	var out []string
	for _, t := range ts {
		if t.IsVariable() && !slices.Contains(out, t.Name) {
			out = append(out, t.Name)
		}
	}
	return out
}
