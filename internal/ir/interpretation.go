package ir

import (
	"slices"
	"strings"
)

// Interpretation is a finite set of ground ordinary atoms.
//
// The zero value is an empty interpretation ready for use. Interpretations
// handed between components are treated as immutable; derive new ones with
// Union, Clone or Filter instead of inserting into a shared value.
type Interpretation struct {
	atoms map[string]Atom
}

// NewInterpretation returns an interpretation holding atoms.
func NewInterpretation(atoms ...Atom) Interpretation {
	i := Interpretation{atoms: make(map[string]Atom, len(atoms))}
	for _, a := range atoms {
		i.atoms[a.Key()] = a
	}
	return i
}

// Insert adds a and reports whether it was new.
func (i *Interpretation) Insert(a Atom) bool {
	if i.atoms == nil {
		i.atoms = make(map[string]Atom)
	}
	k := a.Key()
	if _, ok := i.atoms[k]; ok {
		return false
	}
	i.atoms[k] = a
	return true
}

// InsertAll adds every atom of o.
func (i *Interpretation) InsertAll(o Interpretation) {
	for k, a := range o.atoms {
		if i.atoms == nil {
			i.atoms = make(map[string]Atom, len(o.atoms))
		}
		i.atoms[k] = a
	}
}

// Remove deletes a if present.
func (i *Interpretation) Remove(a Atom) {
	delete(i.atoms, a.Key())
}

// Contains reports membership.
func (i Interpretation) Contains(a Atom) bool {
	_, ok := i.atoms[a.Key()]
	return ok
}

// Len returns the number of atoms.
func (i Interpretation) Len() int { return len(i.atoms) }

// IsEmpty reports whether i holds no atoms.
func (i Interpretation) IsEmpty() bool { return len(i.atoms) == 0 }

// Atoms returns the atoms in CompareAtoms order.
func (i Interpretation) Atoms() []Atom {
	out := make([]Atom, 0, len(i.atoms))
	for _, a := range i.atoms {
		out = append(out, a)
	}
	slices.SortFunc(out, CompareAtoms)
	return out
}

// Clone returns an independent copy.
func (i Interpretation) Clone() Interpretation {
	out := Interpretation{atoms: make(map[string]Atom, len(i.atoms))}
	for k, a := range i.atoms {
		out.atoms[k] = a
	}
	return out
}

// Union returns a new interpretation holding the atoms of i and o.
func (i Interpretation) Union(o Interpretation) Interpretation {
	out := i.Clone()
	out.InsertAll(o)
	return out
}

// Difference returns the atoms of i that are not in o.
func (i Interpretation) Difference(o Interpretation) Interpretation {
	return i.Filter(func(a Atom) bool { return !o.Contains(a) })
}

// Filter returns the atoms of i satisfying keep.
func (i Interpretation) Filter(keep func(Atom) bool) Interpretation {
	out := Interpretation{atoms: make(map[string]Atom)}
	for k, a := range i.atoms {
		if keep(a) {
			out.atoms[k] = a
		}
	}
	return out
}

// ByPredicate returns the positive atoms of predicate pred.
func (i Interpretation) ByPredicate(pred string) Interpretation {
	return i.Filter(func(a Atom) bool { return a.Predicate == pred && !a.Negated })
}

// Visible drops atoms of internal predicates.
func (i Interpretation) Visible() Interpretation {
	return i.Filter(func(a Atom) bool { return !a.IsInternal() })
}

// SubsetOf reports whether every atom of i is in o.
func (i Interpretation) SubsetOf(o Interpretation) bool {
	if len(i.atoms) > len(o.atoms) {
		return false
	}
	for k := range i.atoms {
		if _, ok := o.atoms[k]; !ok {
			return false
		}
	}
	return true
}

// ProperSubsetOf reports whether i is a strict subset of o.
func (i Interpretation) ProperSubsetOf(o Interpretation) bool {
	return len(i.atoms) < len(o.atoms) && i.SubsetOf(o)
}

// Equal reports set equality.
func (i Interpretation) Equal(o Interpretation) bool {
	return len(i.atoms) == len(o.atoms) && i.SubsetOf(o)
}

// Key returns a canonical string identity usable as a map key.
func (i Interpretation) Key() string {
	keys := make([]string, 0, len(i.atoms))
	for k := range i.atoms {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, " ")
}

// Strings renders each atom, in CompareAtoms order.
func (i Interpretation) Strings() []string {
	atoms := i.Atoms()
	out := make([]string, len(atoms))
	for n, a := range atoms {
		out[n] = a.String()
	}
	return out
}

func (i Interpretation) String() string {
	return "{" + strings.Join(i.Strings(), ", ") + "}"
}

// ModelSet collects interpretations, dropping duplicates and keeping the
// order of first insertion.
type ModelSet struct {
	seen   map[string]struct{}
	models []Interpretation
}

// Add inserts m and reports whether it was new.
func (s *ModelSet) Add(m Interpretation) bool {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	k := m.Key()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	s.models = append(s.models, m)
	return true
}

// Len returns the number of distinct models.
func (s *ModelSet) Len() int { return len(s.models) }

// Models returns the collected models. The result is never nil.
func (s *ModelSet) Models() []Interpretation {
	if s.models == nil {
		return []Interpretation{}
	}
	return s.models
}

// SortModels orders models by their canonical key.
func SortModels(ms []Interpretation) {
	slices.SortFunc(ms, func(a, b Interpretation) int {
		return strings.Compare(a.Key(), b.Key())
	})
}
