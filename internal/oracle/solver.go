package oracle

import (
	"context"
	"log/slog"
	"slices"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/roach88/hexeval/internal/ir"
)

// Solver enumerates stable models. The zero value is not usable; call New.
type Solver struct {
	maxModels int
	logger    *slog.Logger
}

// Option configures a Solver.
type Option func(*Solver)

// WithMaxModels stops enumeration after n models. 0 means no limit.
func WithMaxModels(n int) Option {
	return func(s *Solver) {
		if n >= 0 {
			s.maxModels = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Solver.
func New(opts ...Option) *Solver {
	s := &Solver{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve returns the stable models of rules over facts, each unioned with
// facts, ordered by their canonical key.
func (s *Solver) Solve(ctx context.Context, rules []*ir.Rule, facts ir.Interpretation) ([]ir.Interpretation, error) {
	gp, err := Ground(rules, facts)
	if err != nil {
		return nil, err
	}
	if gp.Inconsistent {
		s.logger.Debug("oracle: facts violate the program", "rules", len(rules))
		return []ir.Interpretation{}, nil
	}
	models, err := s.enumerate(ctx, gp)
	if err != nil {
		return nil, err
	}
	ir.SortModels(models)
	s.logger.Debug("oracle solved", "rules", len(rules), "ground_rules", len(gp.Rules), "models", len(models))
	return models, nil
}

func (s *Solver) enumerate(ctx context.Context, gp *GroundProgram) ([]ir.Interpretation, error) {
	enc := newEncoding(gini.New(), gp.Facts)
	enc.encode(gp)

	var models []ir.Interpretation
	for s.maxModels == 0 || len(models) < s.maxModels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if enc.unsat || enc.g.Solve() != 1 {
			break
		}
		m := enc.model()

		if enc.refuteAggregates(m) {
			continue
		}
		if isMinimal(gp, m) {
			models = append(models, m)
		}
		if !enc.block() {
			break
		}
	}
	return models, nil
}

// encoding maps a ground program onto a gini instance. Atom variables come
// first; body and aggregate auxiliaries follow.
type encoding struct {
	g     *gini.Gini
	facts ir.Interpretation
	unsat bool

	next  z.Var
	vars  map[string]z.Var
	atoms []ir.Atom // atom variables in allocation order

	aggs    []GroundAggregate
	aggVars []z.Var
}

func newEncoding(g *gini.Gini, facts ir.Interpretation) *encoding {
	return &encoding{g: g, facts: facts, vars: make(map[string]z.Var)}
}

func (e *encoding) atomVar(a ir.Atom) z.Var {
	if v, ok := e.vars[a.Key()]; ok {
		return v
	}
	v := e.fresh()
	e.vars[a.Key()] = v
	e.atoms = append(e.atoms, a)
	return v
}

// value reads v from the last satisfying assignment. Variables the solver
// never saw in a clause are false.
func (e *encoding) value(v z.Var) bool {
	return v <= e.g.MaxVar() && e.g.Value(v.Pos())
}

func (e *encoding) fresh() z.Var {
	e.next++
	return e.next
}

// aggregateVar returns the variable standing for the (NAF-free) truth of g.
func (e *encoding) aggregateVar(g GroundAggregate) z.Var {
	g.NAF = false
	k := g.key()
	for i, x := range e.aggs {
		if x.key() == k {
			return e.aggVars[i]
		}
	}
	v := e.fresh()
	e.aggs = append(e.aggs, g)
	e.aggVars = append(e.aggVars, v)
	for _, a := range g.Atoms() {
		e.atomVar(a)
	}
	return v
}

// clause adds the disjunction of lits. Duplicates are dropped and
// tautologies skipped; an empty clause makes the instance unsatisfiable.
func (e *encoding) clause(lits ...z.Lit) {
	var uniq []z.Lit
	for _, l := range lits {
		if slices.Contains(uniq, l.Not()) {
			return
		}
		if !slices.Contains(uniq, l) {
			uniq = append(uniq, l)
		}
	}
	if len(uniq) == 0 {
		e.unsat = true
		return
	}
	for _, l := range uniq {
		e.g.Add(l)
	}
	e.g.Add(z.LitNull)
}

func (e *encoding) encode(gp *GroundProgram) {
	support := make(map[z.Var][]z.Lit)
	unconditional := make(map[z.Var]bool)

	for _, r := range gp.Rules {
		var body []z.Lit
		for _, a := range r.Pos {
			body = append(body, e.atomVar(a).Pos())
		}
		for _, a := range r.Neg {
			body = append(body, e.atomVar(a).Neg())
		}
		for _, g := range r.Aggs {
			lit := e.aggregateVar(g).Pos()
			if g.NAF {
				lit = lit.Not()
			}
			body = append(body, lit)
		}

		heads := make([]z.Lit, len(r.Head))
		for i, h := range r.Head {
			heads[i] = e.atomVar(h).Pos()
		}

		if len(body) == 0 {
			e.clause(heads...)
			for _, h := range heads {
				unconditional[h.Var()] = true
			}
			continue
		}

		beta := body[0]
		if len(body) > 1 {
			beta = e.fresh().Pos()
			all := []z.Lit{beta}
			for _, l := range body {
				e.clause(beta.Not(), l)
				all = append(all, l.Not())
			}
			e.clause(all...)
		}
		e.clause(append([]z.Lit{beta.Not()}, heads...)...)
		for _, h := range heads {
			support[h.Var()] = append(support[h.Var()], beta)
		}
	}

	// an atom is true only if some rule deriving it fires
	for _, a := range slices.Clone(e.atoms) {
		v := e.vars[a.Key()]
		if unconditional[v] {
			continue
		}
		e.clause(append([]z.Lit{v.Neg()}, support[v]...)...)
	}

	// strong negation consistency
	for _, a := range slices.Clone(e.atoms) {
		if a.Negated {
			continue
		}
		neg := a.Neg()
		v := e.vars[a.Key()]
		switch {
		case e.facts.Contains(neg):
			e.clause(v.Neg())
		default:
			if nv, ok := e.vars[neg.Key()]; ok {
				e.clause(v.Neg(), nv.Neg())
			}
		}
	}
	for _, a := range slices.Clone(e.atoms) {
		if a.Negated && e.facts.Contains(a.Neg()) {
			e.clause(e.vars[a.Key()].Neg())
		}
	}
}

// model reads the atoms true in the current assignment, plus the facts.
func (e *encoding) model() ir.Interpretation {
	m := e.facts.Clone()
	for _, a := range e.atoms {
		if e.value(e.vars[a.Key()]) {
			m.Insert(a)
		}
	}
	return m
}

// refuteAggregates adds a nogood for every aggregate variable whose value
// disagrees with the aggregate evaluated in m, reporting whether any was
// added.
func (e *encoding) refuteAggregates(m ir.Interpretation) bool {
	refuted := false
	for i, g := range e.aggs {
		v := e.aggVars[i]
		guessed := e.value(v)
		if g.Holds(m.Contains) == guessed {
			continue
		}
		refuted = true
		nogood := []z.Lit{v.Pos()}
		if guessed {
			nogood[0] = v.Neg()
		}
		for _, a := range g.Atoms() {
			av := e.vars[a.Key()]
			if m.Contains(a) {
				nogood = append(nogood, av.Neg())
			} else {
				nogood = append(nogood, av.Pos())
			}
		}
		e.clause(nogood...)
	}
	return refuted
}

// block excludes the current atom assignment. It returns false when there
// are no atom variables, so no other assignment exists.
func (e *encoding) block() bool {
	if len(e.atoms) == 0 {
		return false
	}
	lits := make([]z.Lit, len(e.atoms))
	for i, a := range e.atoms {
		v := e.vars[a.Key()]
		if e.value(v) {
			lits[i] = v.Neg()
		} else {
			lits[i] = v.Pos()
		}
	}
	e.clause(lits...)
	return true
}

// isMinimal reports whether no proper subset of m (keeping the facts)
// satisfies the rules whose body holds in m.
func isMinimal(gp *GroundProgram, m ir.Interpretation) bool {
	free := m.Difference(gp.Facts)
	if free.IsEmpty() {
		return true
	}

	enc := newEncoding(gini.New(), gp.Facts)
	for _, a := range free.Atoms() {
		enc.atomVar(a)
	}
	// atoms outside m stay false
	lit := func(a ir.Atom) (z.Lit, bool) {
		if !free.Contains(a) {
			return z.LitNull, false
		}
		return enc.vars[a.Key()].Pos(), true
	}

	for _, r := range gp.Rules {
		if !bodyHolds(r, m.Contains) {
			continue
		}
		var c []z.Lit
		for _, a := range r.Pos {
			if l, ok := lit(a); ok {
				c = append(c, l.Not())
			}
		}
		for _, g := range r.Aggs {
			l := enc.aggregateVar(g).Pos()
			if g.NAF {
				l = l.Not()
			}
			c = append(c, l.Not())
		}
		for _, h := range r.Head {
			if l, ok := lit(h); ok {
				c = append(c, l)
			}
		}
		enc.clause(c...)
	}

	for _, a := range enc.atoms {
		if !free.Contains(a) {
			enc.clause(enc.vars[a.Key()].Neg())
		}
	}
	smaller := make([]z.Lit, 0, free.Len())
	for _, a := range free.Atoms() {
		smaller = append(smaller, enc.vars[a.Key()].Neg())
	}
	enc.clause(smaller...)

	for {
		if enc.unsat || enc.g.Solve() != 1 {
			return true
		}
		if !enc.refuteAggregates(enc.model()) {
			return false
		}
	}
}

func bodyHolds(r GroundRule, m func(ir.Atom) bool) bool {
	if !conditionHolds(r.Pos, r.Neg, m) {
		return false
	}
	for _, g := range r.Aggs {
		if g.Holds(m) == g.NAF {
			return false
		}
	}
	return true
}
