package compiler

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
)

//go:embed schema.cue
var schemaSource string

// Load reads a program file and returns the compiled, resolved and
// validated program. The format follows the extension: .cue, .yaml or .yml.
func Load(path string, reg *plugin.Registry) (*ir.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	doc, err := ParseDocument(data, path)
	if err != nil {
		return nil, err
	}
	return Build(doc, reg)
}

// ParseDocument decodes a program document, choosing the format by the
// extension of filename.
func ParseDocument(data []byte, filename string) (*ProgramDoc, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cue":
		return ParseCUE(data, filename)
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	return nil, fmt.Errorf("%s: unsupported program format (want .cue, .yaml or .yml)", filename)
}

// Build compiles doc, binds its external atoms to reg and validates the
// result.
func Build(doc *ProgramDoc, reg *plugin.Registry) (*ir.Program, error) {
	prog, err := Compile(doc)
	if err != nil {
		return nil, err
	}
	errs := Resolve(prog, reg)
	errs = append(errs, Validate(prog)...)
	if len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return prog, nil
}

// ParseYAML decodes a YAML program document. Unknown fields are errors.
func ParseYAML(data []byte) (*ProgramDoc, error) {
	var doc ProgramDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, fmt.Errorf("parse YAML program: %w", err)
	}
	return &doc, nil
}

// ParseCUE evaluates src, unifies it with the #Program schema and decodes
// the result. Errors carry CUE source positions.
func ParseCUE(src []byte, filename string) (*ProgramDoc, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile program schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Program")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeCUE(v)
}

func decodeCUE(v cue.Value) (*ProgramDoc, error) {
	doc := &ProgramDoc{}
	var err error
	if doc.Facts, err = cueStrings(v.LookupPath(cue.ParsePath("facts"))); err != nil {
		return nil, err
	}

	rules := v.LookupPath(cue.ParsePath("rules"))
	if !rules.Exists() {
		return doc, nil
	}
	iter, err := rules.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for i := 0; iter.Next(); i++ {
		rv := iter.Value()
		rd := RuleDoc{}
		if pos := rv.Pos(); pos.IsValid() {
			rd.Line = pos.Line()
		}

		switch rv.Kind() {
		case cue.StringKind:
			if rd.Text, err = rv.String(); err != nil {
				return nil, formatCUEError(err)
			}
		case cue.StructKind:
			if rd.Head, err = cueStrings(rv.LookupPath(cue.ParsePath("head"))); err != nil {
				return nil, err
			}
			if rd.Body, err = cueStrings(rv.LookupPath(cue.ParsePath("body"))); err != nil {
				return nil, err
			}
		default:
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules[%d]", i),
				Message: "rule must be a string or a head/body struct",
				Pos:     rv.Pos(),
			}
		}
		doc.Rules = append(doc.Rules, rd)
	}
	return doc, nil
}

func cueStrings(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}
