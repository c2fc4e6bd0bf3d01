package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProgram        = "hexeval/program/v1"
	DomainInterpretation = "hexeval/interpretation/v1"
	DomainAnswerSet      = "hexeval/answer-set/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash identifies a program by its rules and facts.
func ProgramHash(p *Program) (string, error) {
	rules := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = r.String()
	}
	canonical, err := MarshalCanonical(map[string]any{
		"rules": rules,
		"facts": NewInterpretation(p.Facts...).Strings(),
	})
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// InterpretationHash identifies a set of atoms independent of insertion order.
func InterpretationHash(i Interpretation) (string, error) {
	canonical, err := CanonicalAtoms(i)
	if err != nil {
		return "", fmt.Errorf("InterpretationHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainInterpretation, canonical), nil
}

// AnswerSetID identifies answer set m within a run.
func AnswerSetID(runID string, m Interpretation) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"run_id": runID,
		"atoms":  m.Strings(),
	})
	if err != nil {
		return "", fmt.Errorf("AnswerSetID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainAnswerSet, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustProgramHash(p *Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}

// MustInterpretationHash is like InterpretationHash but panics on error.
func MustInterpretationHash(i Interpretation) string {
	h, err := InterpretationHash(i)
	if err != nil {
		panic(err)
	}
	return h
}
