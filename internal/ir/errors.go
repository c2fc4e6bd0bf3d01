package ir

import (
	"errors"
	"fmt"
	"strings"
)

// EvalError is a fatal error raised while evaluating a program.
//
// Fatal errors include:
//   - Oracle failure: the solver could not ground or solve a rule set
//   - Fixpoint divergence: a fixpoint component did not converge in time
//   - Unstratified component: a fixpoint component produced several models
//   - Plugin error: an external atom returned malformed output
//
// An empty model list is never an EvalError; inconsistency is a normal result.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Component names the component being evaluated, if any.
	Component string

	// Rule is the offending rule in program syntax, if any.
	Rule string

	// Atom is the offending atom, if any.
	Atom string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeOracleFailure indicates the solver oracle failed.
	ErrCodeOracleFailure EvalErrorCode = "ORACLE_FAILURE"

	// ErrCodeFixpointDiverged indicates the fixpoint round cap was reached.
	ErrCodeFixpointDiverged EvalErrorCode = "FIXPOINT_DIVERGED"

	// ErrCodeUnstratified indicates a fixpoint round produced more than one model.
	ErrCodeUnstratified EvalErrorCode = "UNSTRATIFIED_COMPONENT"

	// ErrCodeInvalidComponent indicates a generator was bound to a component
	// that violates its invariants.
	ErrCodeInvalidComponent EvalErrorCode = "INVALID_COMPONENT"

	// ErrCodeComponentSolved indicates a solved component was evaluated again.
	ErrCodeComponentSolved EvalErrorCode = "COMPONENT_SOLVED"

	// ErrCodePlugin indicates an external atom returned malformed output.
	ErrCodePlugin EvalErrorCode = "PLUGIN_ERROR"

	// ErrCodeUnorderable indicates no component or residue could be evaluated
	// while unsolved components remained.
	ErrCodeUnorderable EvalErrorCode = "UNORDERABLE_COMPONENTS"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	var ctx []string
	if e.Component != "" {
		ctx = append(ctx, "component="+e.Component)
	}
	if e.Rule != "" {
		ctx = append(ctx, "rule="+e.Rule)
	}
	if e.Atom != "" {
		ctx = append(ctx, "atom="+e.Atom)
	}
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(ctx) > 0 {
		msg += " (" + strings.Join(ctx, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error { return e.Err }

// WithComponent returns e tagged with the component name unless already set.
func (e *EvalError) WithComponent(name string) *EvalError {
	if e.Component == "" {
		e.Component = name
	}
	return e
}

// AsEvalError extracts an *EvalError from err's chain.
func AsEvalError(err error) (*EvalError, bool) {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// HasCode reports whether err carries an EvalError with the given code.
func HasCode(err error, code EvalErrorCode) bool {
	ee, ok := AsEvalError(err)
	return ok && ee.Code == code
}

// IsFatal returns true if err aborts an evaluation run.
func IsFatal(err error) bool {
	_, ok := AsEvalError(err)
	return ok
}

// IsPluginError returns true if the error was raised by an external atom.
func IsPluginError(err error) bool { return HasCode(err, ErrCodePlugin) }

// IsFixpointError returns true for divergence and unstratified-component errors.
func IsFixpointError(err error) bool {
	return HasCode(err, ErrCodeFixpointDiverged) || HasCode(err, ErrCodeUnstratified)
}

// NewOracleError creates an EvalError for a solver failure.
func NewOracleError(message, rule string, cause error) *EvalError {
	return &EvalError{Code: ErrCodeOracleFailure, Message: message, Rule: rule, Err: cause}
}

// NewFixpointDivergedError creates an EvalError for an exceeded round cap.
func NewFixpointDivergedError(rounds int) *EvalError {
	return &EvalError{
		Code:    ErrCodeFixpointDiverged,
		Message: fmt.Sprintf("no fixpoint after %d rounds", rounds),
		Details: map[string]string{"max_rounds": fmt.Sprintf("%d", rounds)},
	}
}

// NewUnstratifiedError creates an EvalError for a multi-model fixpoint round.
func NewUnstratifiedError(models int) *EvalError {
	return &EvalError{
		Code:    ErrCodeUnstratified,
		Message: "fixpoint model generator called with unstratified program",
		Details: map[string]string{"models": fmt.Sprintf("%d", models)},
	}
}

// NewPluginError creates an EvalError tagged with the offending external atom.
func NewPluginError(atom, message string) *EvalError {
	return &EvalError{Code: ErrCodePlugin, Message: message, Atom: atom}
}
