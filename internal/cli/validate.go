package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/plugin"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Check a program without evaluating it",
		Long: `Compile a program, bind its external atoms to the built-in plugins and
check rule safety. Cycles through external atoms, negation or disjunction
are reported as warnings.

Exit codes:
  0 - Program valid (warnings do not fail validation)
  1 - Program invalid
  2 - Command error (missing file, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	prog, err := loadProgram(path, plugin.DefaultRegistry())
	if err != nil {
		var valErrs compiler.ValidationErrors
		if errors.As(err, &valErrs) && len(valErrs) > 0 {
			return outputValidationErrors(formatter, valErrs)
		}
		return reportProgramError(formatter, err, ExitFailure)
	}

	formatter.VerboseLog("Checked %d rule(s) and %d fact(s)", len(prog.Rules), len(prog.Facts))
	warnings := compiler.AnalyzeCycles(prog)

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Warnings: warnings})
	}

	w := formatter.Writer
	for _, warn := range warnings {
		// info notes only show with --verbose
		if warn.Level == "info" && !formatter.Verbose {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	fmt.Fprintln(w, "✓ Program valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
