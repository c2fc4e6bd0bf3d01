package compiler

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hexeval/internal/ir"
)

// ProgramDoc is a decoded program document.
type ProgramDoc struct {
	Facts []string  `yaml:"facts,omitempty" json:"facts,omitempty"`
	Rules []RuleDoc `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// RuleDoc is one rule of a document. Text holds a rule in program syntax;
// otherwise Head and Body list its atoms and body literals.
type RuleDoc struct {
	Text string   `yaml:"-" json:"text,omitempty"`
	Head []string `yaml:"head,omitempty" json:"head,omitempty"`
	Body []string `yaml:"body,omitempty" json:"body,omitempty"`

	// Line is the source line of the rule, 0 when unknown.
	Line int `yaml:"-" json:"-"`
}

// UnmarshalYAML accepts a scalar rule or a head/body mapping.
func (r *RuleDoc) UnmarshalYAML(node *yaml.Node) error {
	r.Line = node.Line
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&r.Text)
	case yaml.MappingNode:
		for i := 0; i < len(node.Content); i += 2 {
			key := node.Content[i]
			switch key.Value {
			case "head":
				if err := node.Content[i+1].Decode(&r.Head); err != nil {
					return err
				}
			case "body":
				if err := node.Content[i+1].Decode(&r.Body); err != nil {
					return err
				}
			default:
				return fmt.Errorf("line %d: field %s not found in rule", key.Line, key.Value)
			}
		}
		return nil
	}
	return fmt.Errorf("line %d: rule must be a string or a head/body mapping", node.Line)
}

// MarshalYAML writes text rules back as scalars.
func (r RuleDoc) MarshalYAML() (any, error) {
	if r.Text != "" {
		return r.Text, nil
	}
	return struct {
		Head []string `yaml:"head,omitempty"`
		Body []string `yaml:"body,omitempty"`
	}{r.Head, r.Body}, nil
}

// Compile parses every fact and rule of doc. All syntax problems are
// reported together as ValidationErrors with code E200. External atoms of
// the result still need Resolve.
func Compile(doc *ProgramDoc) (*ir.Program, error) {
	prog := &ir.Program{}
	var errs ValidationErrors

	for i, f := range doc.Facts {
		field := fmt.Sprintf("facts[%d]", i)
		a, err := ir.ParseAtomString(strings.TrimSuffix(strings.TrimSpace(f), "."))
		if err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrSyntax})
			continue
		}
		if !a.IsGround() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("fact %s is not ground", a),
				Code:    ErrNonGroundFact,
			})
			continue
		}
		prog.Facts = append(prog.Facts, a)
	}

	for i, rd := range doc.Rules {
		r, rerrs := compileRule(fmt.Sprintf("rules[%d]", i), rd)
		if len(rerrs) > 0 {
			errs = append(errs, rerrs...)
			continue
		}
		prog.Rules = append(prog.Rules, r)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return prog, nil
}

func compileRule(field string, rd RuleDoc) (*ir.Rule, ValidationErrors) {
	syntax := func(f string, err error) ValidationError {
		return ValidationError{Field: f, Message: err.Error(), Code: ErrSyntax, Line: rd.Line}
	}

	if rd.Text != "" {
		if len(rd.Head) > 0 || len(rd.Body) > 0 {
			return nil, ValidationErrors{{
				Field: field, Message: "rule text and head/body are exclusive", Code: ErrSyntax, Line: rd.Line,
			}}
		}
		r, err := ir.ParseRule(rd.Text)
		if err != nil {
			return nil, ValidationErrors{syntax(field, err)}
		}
		return r, nil
	}

	if len(rd.Head) == 0 && len(rd.Body) == 0 {
		return nil, ValidationErrors{{
			Field: field, Message: "rule has no head and no body", Code: ErrEmptyRule, Line: rd.Line,
		}}
	}

	var errs ValidationErrors
	r := &ir.Rule{}
	for j, h := range rd.Head {
		a, err := ir.ParseAtomString(h)
		if err != nil {
			errs = append(errs, syntax(fmt.Sprintf("%s.head[%d]", field, j), err))
			continue
		}
		r.Head = append(r.Head, a)
	}
	for j, b := range rd.Body {
		l, err := ir.ParseLiteral(b)
		if err != nil {
			errs = append(errs, syntax(fmt.Sprintf("%s.body[%d]", field, j), err))
			continue
		}
		r.Body = append(r.Body, l)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return r, nil
}
