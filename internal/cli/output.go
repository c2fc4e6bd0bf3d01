package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes. An inconsistent program is a success: it has zero
// answer sets.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // invalid program, fatal evaluation error, failed scenarios
	ExitCommandError = 2 // bad flags, missing files, database errors
)

// Error codes reported in CLIError.Code. Program validation problems use
// the compiler's E2xx codes and evaluation errors their ir.EvalError code.
const (
	ErrCodeGeneric          = "E001"
	ErrCodeLoadFailed       = "E004" // program document does not parse
	ErrCodeNotFound         = "E005" // missing program file or run
	ErrCodeStoreFailed      = "E007" // run history read or write failed
	ErrCodeTestFailed       = "E_TEST_FAILED"
	ErrCodeNotDeterministic = "E_NOT_DETERMINISTIC"
)

// ExitError is a command failure carrying the process exit code.
type ExitError struct {
	Code    int // ExitFailure or ExitCommandError
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code of the first ExitError in err's chain,
// or ExitFailure.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a CLIResponse
// JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose notes; Writer when nil
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"` // set by commands that evaluate a program
}

// CLIError carries a compiler E-code, an evaluation error code or one of
// the ErrCode constants above.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (f *OutputFormatter) isJSON() bool { return f.Format == "json" }

func (f *OutputFormatter) encode(resp CLIResponse) error {
	return json.NewEncoder(f.Writer).Encode(resp)
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	return f.Run("", data)
}

// Run is Success for the result of evaluation run runID.
func (f *OutputFormatter) Run(runID string, data any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data, RunID: runID})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an error report. Text mode shows details only with
// --verbose.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.isJSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err under code and returns it as an ExitError with the
// given exit code. err may be nil.
func (f *OutputFormatter) Fail(code string, exit int, message string, err error) error {
	report := message
	if err != nil {
		report = fmt.Sprintf("%s: %v", message, err)
	}
	_ = f.Error(code, report, nil)
	return WrapExitError(exit, message, err)
}

// VerboseLog writes a note to ErrWriter when --verbose is set, keeping
// JSON output on Writer parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
