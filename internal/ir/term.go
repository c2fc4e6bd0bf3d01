package ir

import (
	"cmp"
	"strconv"
	"strings"
	"unicode"
)

// TermKind distinguishes the four kinds of term an atom argument can hold.
type TermKind uint8

const (
	// TermInteger is a signed integer constant.
	TermInteger TermKind = iota + 1
	// TermConstant is a symbolic constant such as a or foo.
	TermConstant
	// TermString is a quoted string constant such as "b".
	TermString
	// TermVariable is a logic variable such as X.
	TermVariable
)

// Term is an immutable argument value. Terms are comparable with ==.
type Term struct {
	Kind TermKind
	Name string // constant, string or variable name
	Int  int64  // value for TermInteger
}

// Const returns a symbolic constant term.
func Const(name string) Term { return Term{Kind: TermConstant, Name: name} }

// Str returns a string constant term.
func Str(s string) Term { return Term{Kind: TermString, Name: s} }

// Int returns an integer term.
func Int(n int64) Term { return Term{Kind: TermInteger, Int: n} }

// Var returns a variable term.
func Var(name string) Term { return Term{Kind: TermVariable, Name: name} }

// ParseTerm classifies a term written in program syntax:
//
//	X, _Y       variables (leading upper-case letter or underscore)
//	"text"      string constant
//	42, -7      integer
//	anything    symbolic constant
func ParseTerm(s string) Term {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if unq, err := strconv.Unquote(s); err == nil {
			return Str(unq)
		}
		return Str(s[1 : len(s)-1])
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(n)
	}
	if s != "" {
		r := []rune(s)[0]
		if r == '_' || unicode.IsUpper(r) {
			return Var(s)
		}
	}
	return Const(s)
}

// IsVariable reports whether t is a variable.
func (t Term) IsVariable() bool { return t.Kind == TermVariable }

// IsGround reports whether t is not a variable.
func (t Term) IsGround() bool { return t.Kind != TermVariable }

// String renders t in program syntax.
func (t Term) String() string {
	switch t.Kind {
	case TermInteger:
		return strconv.FormatInt(t.Int, 10)
	case TermString:
		return strconv.Quote(t.Name)
	default:
		return t.Name
	}
}

// CompareTerms orders terms: integers, then constants, then strings,
// then variables; within a kind by value.
func CompareTerms(a, b Term) int {
	if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
		return c
	}
	if a.Kind == TermInteger {
		return cmp.Compare(a.Int, b.Int)
	}
	return strings.Compare(a.Name, b.Name)
}

// Substitution maps variable names to terms.
type Substitution map[string]Term

// Apply resolves t under s. Unbound variables are returned unchanged.
func (s Substitution) Apply(t Term) Term {
	if t.IsVariable() {
		if v, ok := s[t.Name]; ok {
			return v
		}
	}
	return t
}

// Clone returns a copy of s that can be extended independently.
func (s Substitution) Clone() Substitution {
	out := make(Substitution, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Bind extends s with name=t. It returns false when name is already
// bound to a different term.
func (s Substitution) Bind(name string, t Term) bool {
	if cur, ok := s[name]; ok {
		return cur == t
	}
	s[name] = t
	return true
}
