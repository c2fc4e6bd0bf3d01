package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/hexeval/internal/ir"
)

// marshalModel converts an interpretation to canonical JSON TEXT: a sorted
// array of atom strings.
func marshalModel(m ir.Interpretation) (string, error) {
	data, err := ir.CanonicalAtoms(m)
	if err != nil {
		return "", fmt.Errorf("marshal model: %w", err)
	}
	return string(data), nil
}

// unmarshalModel parses the TEXT written by marshalModel.
func unmarshalModel(data string) (ir.Interpretation, error) {
	var atoms []string
	if err := json.Unmarshal([]byte(data), &atoms); err != nil {
		return ir.Interpretation{}, fmt.Errorf("unmarshal model: %w", err)
	}
	m, err := ir.ParseInterpretation(atoms...)
	if err != nil {
		return ir.Interpretation{}, fmt.Errorf("unmarshal model: %w", err)
	}
	return m, nil
}
