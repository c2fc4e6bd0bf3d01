package ir

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseAtomString parses an ordinary atom written as p, p(a,X,"s") or -p(1).
// Arguments are classified with ParseTerm.
func ParseAtomString(s string) (Atom, error) {
	s = strings.TrimSpace(s)
	negated := strings.HasPrefix(s, "-")
	if negated {
		s = strings.TrimSpace(s[1:])
	}

	pred, rest := s, ""
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Atom{}, fmt.Errorf("atom %q: missing closing parenthesis", s)
		}
		pred, rest = strings.TrimSpace(s[:i]), s[i+1:len(s)-1]
	}
	if !isPredicateName(pred) {
		return Atom{}, fmt.Errorf("atom %q: invalid predicate name %q", s, pred)
	}

	a := Atom{Predicate: pred, Negated: negated}
	if strings.TrimSpace(rest) == "" {
		if strings.Contains(s, "(") {
			return Atom{}, fmt.Errorf("atom %q: empty argument list", s)
		}
		return a, nil
	}
	args, err := splitArgs(rest)
	if err != nil {
		return Atom{}, fmt.Errorf("atom %q: %w", s, err)
	}
	a.Args = make([]Term, len(args))
	for i, arg := range args {
		if arg == "" {
			return Atom{}, fmt.Errorf("atom %q: empty argument %d", s, i+1)
		}
		a.Args[i] = ParseTerm(arg)
	}
	return a, nil
}

// MustParseAtom is ParseAtomString for literals known to be valid. It panics
// on error.
func MustParseAtom(s string) Atom {
	a, err := ParseAtomString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseInterpretation parses every string with ParseAtomString.
func ParseInterpretation(atoms ...string) (Interpretation, error) {
	out := NewInterpretation()
	for _, s := range atoms {
		a, err := ParseAtomString(s)
		if err != nil {
			return Interpretation{}, err
		}
		if !a.IsGround() {
			return Interpretation{}, fmt.Errorf("atom %q is not ground", s)
		}
		out.Insert(a)
	}
	return out, nil
}

func isPredicateName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case i == 0 && !(unicode.IsLower(r) || r == '_'):
			return false
		case !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'):
			return false
		}
	}
	return true
}

// splitArgs splits on top-level commas, keeping quoted strings intact.
func splitArgs(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case !quoted && r == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		case !quoted && (r == '(' || r == ')'):
			return nil, fmt.Errorf("nested terms are not supported")
		}
		cur.WriteRune(r)
	}
	if quoted {
		return nil, fmt.Errorf("unterminated string")
	}
	return append(args, strings.TrimSpace(cur.String())), nil
}

// ParseLiteral parses a body literal written in program syntax:
//
//	p(X)  -p(X)  not p(X)        ordinary literals
//	&f[p,c](X,Y)  not &f[p]()     external literals
//	X != Y  N < 3  Z = a          builtin comparisons
//	#count{X : p(X)} >= 2         aggregates
//
// Input kinds of external atoms are left unset.
func ParseLiteral(s string) (Literal, error) {
	s = strings.TrimSpace(s)
	if s == "not" {
		return Literal{}, fmt.Errorf("literal %q: missing atom after not", s)
	}
	naf := false
	if rest, ok := strings.CutPrefix(s, "not "); ok {
		naf = true
		s = strings.TrimSpace(rest)
	}

	var (
		atom BodyAtom
		err  error
	)
	switch {
	case strings.HasPrefix(s, "&"):
		atom, err = parseExternal(s)
	case strings.HasPrefix(s, "#"):
		atom, err = parseAggregate(s)
	case topLevelOp(s) >= 0:
		atom, err = parseBuiltin(s)
	default:
		atom, err = ParseAtomString(s)
	}
	if err != nil {
		return Literal{}, err
	}
	return Literal{Atom: atom, NAF: naf}, nil
}

// parseExternal parses &f[inputs](outputs). The output list may be omitted.
func parseExternal(s string) (ExternalAtom, error) {
	open := strings.IndexByte(s, '[')
	end := strings.IndexByte(s, ']')
	if open < 0 || end < open {
		return ExternalAtom{}, fmt.Errorf("external atom %q: missing input list", s)
	}
	name := strings.TrimSpace(s[1:open])
	if !isPredicateName(name) {
		return ExternalAtom{}, fmt.Errorf("external atom %q: invalid function name %q", s, name)
	}
	inputs, err := parseTermList(s[open+1 : end])
	if err != nil {
		return ExternalAtom{}, fmt.Errorf("external atom %q: inputs: %w", s, err)
	}

	rest := strings.TrimSpace(s[end+1:])
	var outputs []Term
	if rest != "" {
		if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
			return ExternalAtom{}, fmt.Errorf("external atom %q: malformed output list", s)
		}
		outputs, err = parseTermList(rest[1 : len(rest)-1])
		if err != nil {
			return ExternalAtom{}, fmt.Errorf("external atom %q: outputs: %w", s, err)
		}
	}
	return ExternalAtom{Function: name, Inputs: inputs, Outputs: outputs}, nil
}

func parseTermList(s string) ([]Term, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	args, err := splitArgs(s)
	if err != nil {
		return nil, err
	}
	out := make([]Term, len(args))
	for i, a := range args {
		if a == "" {
			return nil, fmt.Errorf("empty term %d", i+1)
		}
		out[i] = ParseTerm(a)
	}
	return out, nil
}

var builtinOps = []string{OpNe, OpLe, OpGe, OpLt, OpGt, OpEq}

// topLevelOp returns the index of the first comparison operator outside
// quotes and parentheses, or -1.
func topLevelOp(s string) int {
	depth, quoted, escaped := 0, false, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '(':
			depth++
		case r == ')':
			depth--
		case depth == 0 && strings.ContainsRune("!<>=", r):
			return i
		}
	}
	return -1
}

func parseBuiltin(s string) (BuiltinAtom, error) {
	i := topLevelOp(s)
	op := ""
	for _, candidate := range builtinOps {
		if strings.HasPrefix(s[i:], candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return BuiltinAtom{}, fmt.Errorf("builtin %q: unknown operator", s)
	}
	left, right := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(op):])
	if left == "" || right == "" {
		return BuiltinAtom{}, fmt.Errorf("builtin %q: missing operand", s)
	}
	if strings.ContainsAny(left+right, "()") {
		return BuiltinAtom{}, fmt.Errorf("builtin %q: operands must be terms", s)
	}
	return BuiltinAtom{Op: op, Left: ParseTerm(left), Right: ParseTerm(right)}, nil
}

// parseAggregate parses #fn{terms : literals} op bound.
func parseAggregate(s string) (AggregateAtom, error) {
	open := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if open < 0 || end < open {
		return AggregateAtom{}, fmt.Errorf("aggregate %q: missing element braces", s)
	}
	g := AggregateAtom{Function: strings.TrimSpace(s[1:open])}
	if !IsAggregateFunction(g.Function) {
		return AggregateAtom{}, fmt.Errorf("aggregate %q: unknown function #%s", s, g.Function)
	}

	parts := splitTop(s[open+1:end], ":")
	if len(parts) != 2 {
		return AggregateAtom{}, fmt.Errorf("aggregate %q: element must be \"terms : body\"", s)
	}
	terms, err := parseTermList(parts[0])
	if err != nil {
		return AggregateAtom{}, fmt.Errorf("aggregate %q: terms: %w", s, err)
	}
	g.Terms = terms
	for _, ls := range splitTop(parts[1], ",") {
		l, err := ParseLiteral(ls)
		if err != nil {
			return AggregateAtom{}, fmt.Errorf("aggregate %q: %w", s, err)
		}
		switch l.Atom.(type) {
		case Atom, BuiltinAtom:
		default:
			return AggregateAtom{}, fmt.Errorf("aggregate %q: %s is not allowed in an aggregate element", s, l.Atom)
		}
		g.Body = append(g.Body, l)
	}

	rest := strings.TrimSpace(s[end+1:])
	for _, op := range builtinOps {
		if bound, ok := strings.CutPrefix(rest, op); ok && strings.TrimSpace(bound) != "" {
			g.Op, g.Bound = op, ParseTerm(bound)
			return g, nil
		}
	}
	return AggregateAtom{}, fmt.Errorf("aggregate %q: missing comparison", s)
}

// ParseRule parses a rule in the syntax Rule.String produces:
//
//	p(a).
//	p(X) v q(X) :- d(X), not r(X).
//	:- p(X), q(X).
//
// "|" is accepted in place of " v ". The trailing period is optional.
func ParseRule(s string) (*Rule, error) {
	text := strings.TrimSpace(s)
	text = strings.TrimSpace(strings.TrimSuffix(text, "."))
	if text == "" {
		return nil, fmt.Errorf("empty rule")
	}
	parts := splitTop(text, ":-")
	if len(parts) > 2 {
		return nil, fmt.Errorf("rule %q: more than one \":-\"", s)
	}

	r := &Rule{}
	if head := strings.TrimSpace(parts[0]); head != "" {
		hs := splitTop(head, " v ")
		if len(hs) == 1 {
			hs = splitTop(head, "|")
		}
		for _, h := range hs {
			a, err := ParseAtomString(h)
			if err != nil {
				return nil, fmt.Errorf("rule %q: head: %w", s, err)
			}
			r.Head = append(r.Head, a)
		}
	}
	if len(parts) == 2 {
		body := strings.TrimSpace(parts[1])
		if body == "" {
			return nil, fmt.Errorf("rule %q: empty body", s)
		}
		for _, ls := range splitTop(body, ",") {
			l, err := ParseLiteral(ls)
			if err != nil {
				return nil, fmt.Errorf("rule %q: body: %w", s, err)
			}
			r.Body = append(r.Body, l)
		}
	}
	if len(r.Head) == 0 && len(r.Body) == 0 {
		return nil, fmt.Errorf("rule %q: no head and no body", s)
	}
	return r, nil
}

// splitTop splits s on sep where it occurs outside quotes and brackets.
func splitTop(s, sep string) []string {
	var (
		parts   []string
		depth   int
		quoted  bool
		escaped bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case quoted && c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			parts = append(parts, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
