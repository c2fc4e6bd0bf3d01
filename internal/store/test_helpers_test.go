package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hexeval/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun creates a run of a small disjunctive program.
func createTestRun(t *testing.T, id string) Run {
	t.Helper()
	r, err := ir.ParseRule("a v b :- d(1).")
	if err != nil {
		t.Fatalf("ParseRule() failed: %v", err)
	}
	prog := &ir.Program{
		Rules: []*ir.Rule{r},
		Facts: []ir.Atom{ir.NewAtom("d", ir.Int(1))},
	}
	run, err := NewRun(id, prog)
	if err != nil {
		t.Fatalf("NewRun() failed: %v", err)
	}
	return run
}

// model parses ground atoms into an interpretation.
func model(t *testing.T, atoms ...string) ir.Interpretation {
	t.Helper()
	m, err := ir.ParseInterpretation(atoms...)
	if err != nil {
		t.Fatalf("ParseInterpretation() failed: %v", err)
	}
	return m
}
