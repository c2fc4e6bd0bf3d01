package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
)

// loadProgram reads, compiles and validates the program file at path
// against reg. A missing file is a command error (exit code 2); problems
// in the program itself are reported through reportProgramError.
func loadProgram(path string, reg *plugin.Registry) (*ir.Program, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("program not found: %s", path), err)
	}
	return compiler.Load(path, reg)
}

// reportProgramError writes err in the formatter's format and returns the
// ExitError the command should return. exitCode applies to problems in the
// program; I/O errors are always command errors.
func reportProgramError(f *OutputFormatter, err error, exitCode int) error {
	var (
		exitErr *ExitError
		valErrs compiler.ValidationErrors
		compErr *compiler.CompileError
		evalErr *ir.EvalError
		code    = ErrCodeGeneric
		details any
		message = err.Error()
	)
	switch {
	case errors.As(err, &exitErr):
		_ = f.Error(ErrCodeNotFound, exitErr.Message, nil)
		return exitErr
	case errors.As(err, &valErrs) && len(valErrs) > 0:
		code = valErrs[0].Code
		message = fmt.Sprintf("program has %d error(s)", len(valErrs))
		details = []compiler.ValidationError(valErrs)
		if f.Format != "json" {
			fmt.Fprintf(f.Writer, "✗ %s\n", message)
			for _, ve := range valErrs {
				fmt.Fprintf(f.Writer, "  %s\n", ve.Error())
			}
			return WrapExitError(exitCode, message, err)
		}
	case errors.As(err, &compErr):
		code = ErrCodeLoadFailed
	case errors.As(err, &evalErr):
		code = string(evalErr.Code)
		if len(evalErr.Details) > 0 {
			details = evalErr.Details
		}
		exitCode = ExitFailure
	}
	_ = f.Error(code, message, details)
	return WrapExitError(exitCode, message, err)
}
