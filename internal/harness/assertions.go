package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/hexeval/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Models   [][]string   // Answer sets for context
	Trace    []TraceEvent // Evaluation trace for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Models) > 0 {
		fmt.Fprintf(&buf, "\nAnswer sets:\n")
		for i, m := range e.Models {
			fmt.Fprintf(&buf, "  [%d] {%s}\n", i+1, strings.Join(m, ", "))
		}
	}
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s/%s %s %d -> %d\n",
				ev.Seq, ev.Subgraph, ev.Component, ev.Kind, ev.Inputs, ev.Outputs)
		}
	}
	return buf.String()
}

// containsAll reports whether model holds every atom of atoms.
func containsAll(model []string, atoms []string) bool {
	for _, a := range atoms {
		if !slices.Contains(model, a) {
			return false
		}
	}
	return true
}

// canonicalAtoms renders atoms the way answer sets print them, so "p( 1 )"
// in a scenario matches p(1) in a model.
func canonicalAtoms(atoms []string) []string {
	i, err := ir.ParseInterpretation(atoms...)
	if err != nil {
		return atoms
	}
	return i.Strings()
}

func assertModelCount(result *Result, a Assertion) error {
	if len(result.Models) != a.Count {
		return &AssertionError{
			Type:     AssertModelCount,
			Expected: fmt.Sprintf("%d answer sets", a.Count),
			Actual:   fmt.Sprintf("%d answer sets", len(result.Models)),
			Models:   result.Models,
		}
	}
	return nil
}

func assertAllModelsContain(result *Result, a Assertion) error {
	atoms := canonicalAtoms(a.Atoms)
	for i, m := range result.Models {
		if !containsAll(m, atoms) {
			return &AssertionError{
				Type:     AssertAllModelsContain,
				Expected: fmt.Sprintf("every answer set contains %v", atoms),
				Actual:   fmt.Sprintf("answer set %d does not", i+1),
				Models:   result.Models,
			}
		}
	}
	if len(result.Models) == 0 {
		return &AssertionError{
			Type:     AssertAllModelsContain,
			Expected: fmt.Sprintf("every answer set contains %v", atoms),
			Actual:   "no answer sets",
		}
	}
	return nil
}

func assertSomeModelContains(result *Result, a Assertion) error {
	atoms := canonicalAtoms(a.Atoms)
	for _, m := range result.Models {
		if containsAll(m, atoms) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSomeModelContains,
		Expected: fmt.Sprintf("an answer set containing %v", atoms),
		Actual:   "not found",
		Models:   result.Models,
	}
}

func assertNoModelContains(result *Result, a Assertion) error {
	atoms := canonicalAtoms(a.Atoms)
	for i, m := range result.Models {
		if containsAll(m, atoms) {
			return &AssertionError{
				Type:     AssertNoModelContains,
				Expected: fmt.Sprintf("no answer set containing %v", atoms),
				Actual:   fmt.Sprintf("answer set %d contains them", i+1),
				Models:   result.Models,
			}
		}
	}
	return nil
}

func assertInconsistent(result *Result) error {
	if !result.Inconsistent() {
		actual := fmt.Sprintf("%d answer sets", len(result.Models))
		if result.ErrorCode != "" {
			actual = "error " + result.ErrorCode
		}
		return &AssertionError{
			Type:     AssertInconsistent,
			Expected: "no answer sets",
			Actual:   actual,
			Models:   result.Models,
		}
	}
	return nil
}

func assertComponentKind(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Component == a.Component {
			if ev.Kind != a.Kind {
				return &AssertionError{
					Type:     AssertComponentKind,
					Expected: fmt.Sprintf("component %s of kind %s", a.Component, a.Kind),
					Actual:   fmt.Sprintf("kind %s", ev.Kind),
					Trace:    trace,
				}
			}
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertComponentKind,
		Expected: fmt.Sprintf("component %s of kind %s", a.Component, a.Kind),
		Actual:   "component not evaluated",
		Trace:    trace,
	}
}

// assertEvaluationOrder checks that components were evaluated in the given
// order. Other components may be evaluated in between.
func assertEvaluationOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if _, seen := positions[ev.Component]; !seen {
			positions[ev.Component] = i + 1 // 1-indexed
		}
	}

	for _, c := range a.Components {
		if positions[c] == 0 {
			return &AssertionError{
				Type:     AssertEvaluationOrder,
				Expected: fmt.Sprintf("all components evaluated: %v", a.Components),
				Actual:   fmt.Sprintf("missing component: %s", c),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Components); i++ {
		prev, curr := a.Components[i-1], a.Components[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEvaluationOrder,
				Expected: fmt.Sprintf("components in order: %v", a.Components),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertModelCount:
			err = assertModelCount(result, assertion)
		case AssertAllModelsContain:
			err = assertAllModelsContain(result, assertion)
		case AssertSomeModelContains:
			err = assertSomeModelContains(result, assertion)
		case AssertNoModelContains:
			err = assertNoModelContains(result, assertion)
		case AssertInconsistent:
			err = assertInconsistent(result)
		case AssertComponentKind:
			err = assertComponentKind(result.Trace, assertion)
		case AssertEvaluationOrder:
			err = assertEvaluationOrder(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
