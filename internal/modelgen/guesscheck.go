package modelgen

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/hexeval/internal/ir"
)

// Predicates synthesized by GuessCheck.
const (
	flpPrefix       = ir.InternalPrefix + "flp_"
	domainPredicate = ir.InternalPrefix + "dom"
)

// GuessCheck computes the models of an unstratified component with
// external atoms.
//
// For every rule and every external literal of the unit it adds a guessing
// rule
//
//	r v -r :- <rest of the body>.
//
// where r is the replacement atom, enumerates the guesses with the oracle
// and accepts a guess M when
//   - every guessed replacement atom agrees with the external atom
//     evaluated under M, and
//   - the rules whose body holds in M, evaluated by fixpoint iteration from
//     the input, reproduce M (FLP-reduct check).
//
// Accepted guesses that are not subset-minimal are dropped.
type GuessCheck struct {
	oracle   Oracle
	eval     ExternalEvaluator
	fixpoint *Fixpoint
	logger   *slog.Logger
}

// NewGuessCheck returns a GuessCheck generator whose reduct check iterates
// with a Fixpoint generator sharing oracle and eval.
func NewGuessCheck(oracle Oracle, eval ExternalEvaluator) *GuessCheck {
	return &GuessCheck{oracle: oracle, eval: eval, fixpoint: NewFixpoint(oracle, eval), logger: slog.Default()}
}

// Compute implements ModelGenerator.
func (g *GuessCheck) Compute(ctx context.Context, u Unit, in ir.Interpretation) ([]ir.Interpretation, error) {
	if len(u.Externals) == 0 {
		return nil, &ir.EvalError{
			Code:      ir.ErrCodeInvalidComponent,
			Message:   "guess-and-check generator bound to a component without external atoms",
			Component: u.Name,
		}
	}

	guessRules, needDomain := guessingRules(u)
	facts := in
	if needDomain {
		dom, err := g.domain(ctx, u, in)
		if err != nil {
			return nil, err
		}
		facts = in.Union(dom)
	}

	guesses, err := solve(ctx, g.oracle, u, append(u.OracleRules(), guessRules...), facts)
	if err != nil {
		return nil, err
	}

	var accepted []ir.Interpretation
	for _, guess := range guesses {
		guess = guess.Filter(func(a ir.Atom) bool { return a.Predicate != domainPredicate })

		ok, err := g.compatible(ctx, u, guess)
		if err != nil {
			return nil, err
		}
		if !ok {
			g.logger.Debug("guess discarded: external mismatch", "component", u.Name, "guess", guess.String())
			continue
		}
		ok, err = g.reductCheck(ctx, u, in, guess)
		if err != nil {
			return nil, err
		}
		if !ok {
			g.logger.Debug("guess discarded: reduct mismatch", "component", u.Name, "guess", guess.String())
			continue
		}
		accepted = append(accepted, guess.Filter(func(a ir.Atom) bool {
			return !(a.Negated && ir.IsReplacementPredicate(a.Predicate))
		}))
	}

	models := MinimalBy(accepted, ordinaryPart)
	g.logger.Debug("guess and check done", "component", u.Name, "guesses", len(guesses), "accepted", len(accepted), "models", len(models))
	return models, nil
}

// guessingRules builds one guessing rule per external literal of the unit
// owned by the unit. Variables of the replacement atom that the rest of the
// body does not bind are ranged over the domain predicate, reported by the
// second result.
func guessingRules(u Unit) ([]*ir.Rule, bool) {
	var (
		out        []*ir.Rule
		seen       = make(map[string]bool)
		needDomain bool
	)
	for _, r := range u.Rules {
		for li, l := range r.Body {
			e, ok := l.Atom.(ir.ExternalAtom)
			if !ok || !u.Owns(e) {
				continue
			}
			body := make([]ir.Literal, 0, len(r.Body))
			for j, other := range r.Body {
				if j == li {
					continue
				}
				if oe, ok := other.Atom.(ir.ExternalAtom); ok {
					other = ir.Literal{Atom: oe.Replacement(), NAF: other.NAF}
				}
				body = append(body, other)
			}
			repl := e.Replacement()
			bound := boundVariables(body)
			for _, v := range repl.Variables() {
				if !bound[v] {
					body = append(body, ir.Pos(ir.NewAtom(domainPredicate, ir.Var(v))))
					needDomain = true
				}
			}
			rule := ir.NewRule([]ir.Atom{repl, repl.Neg()}, body...)
			if key := rule.String(); !seen[key] {
				seen[key] = true
				out = append(out, rule)
			}
		}
	}
	return out, needDomain
}

// boundVariables returns the variables bound by positive ordinary literals.
func boundVariables(body []ir.Literal) map[string]bool {
	bound := make(map[string]bool)
	for _, l := range body {
		if a, ok := l.Ordinary(); ok && !l.NAF {
			for _, v := range a.Variables() {
				bound[v] = true
			}
		}
	}
	return bound
}

// domain returns a domain fact for every constant of the unit's rules, of
// the input and of the unit's external atoms evaluated under the input.
func (g *GuessCheck) domain(ctx context.Context, u Unit, in ir.Interpretation) (ir.Interpretation, error) {
	ext, err := evaluateAll(ctx, g.eval, u, in)
	if err != nil {
		return ir.Interpretation{}, err
	}
	dom := ir.NewInterpretation()
	add := func(ts []ir.Term) {
		for _, t := range ts {
			if t.IsGround() {
				dom.Insert(ir.NewAtom(domainPredicate, t))
			}
		}
	}
	for _, r := range u.Rules {
		for _, h := range r.Head {
			add(h.Args)
		}
		for _, l := range r.Body {
			switch a := l.Atom.(type) {
			case ir.Atom:
				add(a.Args)
			case ir.ExternalAtom:
				add(a.Inputs)
				add(a.Outputs)
			case ir.BuiltinAtom:
				add([]ir.Term{a.Left, a.Right})
			}
		}
	}
	for _, a := range in.Union(ext).Atoms() {
		add(a.Args)
	}
	return dom, nil
}

// compatible reports whether every guessed replacement atom of guess
// agrees with its external atom evaluated under guess.
func (g *GuessCheck) compatible(ctx context.Context, u Unit, guess ir.Interpretation) (bool, error) {
	for _, e := range u.Externals {
		pattern := e.Replacement()
		guessed := guess.Filter(func(a ir.Atom) bool {
			if a.Predicate != pattern.Predicate {
				return false
			}
			_, ok := ir.Match(pattern, ir.Atom{Predicate: a.Predicate, Args: a.Args}, nil)
			return ok
		})
		if guessed.IsEmpty() {
			continue
		}
		res, err := g.eval.Evaluate(ctx, e, guess)
		if err != nil {
			return false, tagError(err, u.Name, func(cause error) *ir.EvalError {
				return &ir.EvalError{Code: ir.ErrCodePlugin, Message: "evaluation failed", Atom: e.String(), Err: cause}
			})
		}
		for _, a := range guessed.Atoms() {
			if a.Negated {
				if res.Contains(a.Neg()) {
					return false, nil
				}
			} else if !res.Contains(a) {
				return false, nil
			}
		}
	}
	return true, nil
}

// reductCheck verifies guess against the FLP reduct: the rules whose body
// holds in guess, evaluated from the input, must derive exactly guess.
func (g *GuessCheck) reductCheck(ctx context.Context, u Unit, in, guess ir.Interpretation) (bool, error) {
	var (
		markerRules  []*ir.Rule
		guardedRules []*ir.Rule
	)
	for i, r := range u.Rules {
		if r.IsConstraint() {
			continue
		}
		replaced := r.ReplaceExternals()
		marker := ir.NewAtom(flpPrefix+strconv.Itoa(i), markerArgs(replaced)...)
		markerRules = append(markerRules, ir.NewRule([]ir.Atom{marker}, replaced.Body...))

		guarded := slices.Clone(r.Body)
		guardedRules = append(guardedRules, ir.NewRule(r.Head, append(guarded, ir.Pos(marker))...))
	}

	fired, err := solve(ctx, g.oracle, u, markerRules, guess)
	if err != nil {
		return false, err
	}
	if len(fired) == 0 {
		return false, nil
	}
	markers := fired[0].Filter(func(a ir.Atom) bool { return isMarker(a.Predicate) })

	want := ordinaryPart(guess)
	reduct := Unit{Name: u.Name, Rules: guardedRules, Externals: u.Externals}
	withinGuess := func(_ Unit, models []ir.Interpretation) (ir.Interpretation, bool, error) {
		for _, m := range models {
			if ordinaryPart(m).SubsetOf(want) {
				return m, true, nil
			}
		}
		return ir.Interpretation{}, false, nil
	}
	res, err := g.fixpoint.compute(ctx, reduct, in.Union(markers), withinGuess)
	if err != nil {
		return false, err
	}
	return len(res) == 1 && ordinaryPart(res[0]).Equal(want), nil
}

// markerArgs returns the variables bound by the positive ordinary literals
// of r, sorted.
func markerArgs(r *ir.Rule) []ir.Term {
	bound := boundVariables(r.Body)
	vars := make([]string, 0, len(bound))
	for v := range bound {
		vars = append(vars, v)
	}
	slices.Sort(vars)
	args := make([]ir.Term, len(vars))
	for i, v := range vars {
		args[i] = ir.Var(v)
	}
	return args
}

func isMarker(pred string) bool { return strings.HasPrefix(pred, flpPrefix) }

// ordinaryPart drops replacement, marker and domain atoms.
func ordinaryPart(i ir.Interpretation) ir.Interpretation {
	return i.Filter(func(a ir.Atom) bool {
		return !ir.IsReplacementPredicate(a.Predicate) && !isMarker(a.Predicate) && a.Predicate != domainPredicate
	})
}
