package plugin

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/hexeval/internal/ir"
)

// Query is what a plugin atom sees of one evaluation.
type Query struct {
	// Input is the ground input list.
	Input []ir.Term

	// Interpretation holds the facts of the predicates named by the
	// predicate inputs, and nothing else.
	Interpretation ir.Interpretation
}

// Tuple is one answer of a plugin atom.
type Tuple []ir.Term

// RetrieveFunc computes the answer tuples of a query.
type RetrieveFunc func(ctx context.Context, q Query) ([]Tuple, error)

// Atom describes a plugin atom.
type Atom struct {
	Name        string
	InputKinds  []ir.InputKind
	OutputArity int

	// Nonmonotonic is set when adding facts to a predicate input may remove
	// answers.
	Nonmonotonic bool

	Retrieve RetrieveFunc
}

// Registry maps function names to plugin atoms. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	atoms map[string]Atom
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{atoms: make(map[string]Atom)}
}

// Register adds a. Names must be unique.
func (r *Registry) Register(a Atom) error {
	if a.Name == "" {
		return fmt.Errorf("plugin atom has no name")
	}
	if a.Retrieve == nil {
		return fmt.Errorf("plugin atom %q has no retrieve function", a.Name)
	}
	if a.OutputArity < 0 {
		return fmt.Errorf("plugin atom %q has negative output arity", a.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.atoms[a.Name]; dup {
		return fmt.Errorf("plugin atom %q already registered", a.Name)
	}
	a.InputKinds = slices.Clone(a.InputKinds)
	r.atoms[a.Name] = a
	return nil
}

// MustRegister is Register for setup code. It panics on error.
func (r *Registry) MustRegister(a Atom) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Lookup returns the plugin atom registered under name.
func (r *Registry) Lookup(name string) (Atom, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.atoms[name]
	return a, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.atoms))
	for n := range r.atoms {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
