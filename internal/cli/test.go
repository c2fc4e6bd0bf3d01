package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/hexeval/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update   bool   // regenerate golden files
	Filter   string // scenario filter (glob pattern)
	Parallel int    // scenarios run at once
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`

	note string // extra text output, e.g. "golden updated"
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run YAML scenario files: each scenario evaluates a program and checks
its answer sets against expectations and assertions. When
<dir>/golden/<name>.golden exists the run must also match it.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  hexeval test ./scenarios
  hexeval test ./scenarios --filter "diff-*"
  hexeval test ./scenarios --update
  hexeval test ./scenarios --parallel 8 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "number of scenarios run concurrently")

	return cmd
}

func runTests(ctx context.Context, opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if info, err := os.Stat(scenariosDir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	if opts.Parallel < 1 {
		return NewExitError(ExitCommandError, "--parallel must be at least 1")
	}

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	// Every scenario owns its program, processor and in-memory store, so
	// they can run concurrently. Results keep file order.
	results := make([]ScenarioResult, len(scenarioFiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)
	for i, file := range scenarioFiles {
		g.Go(func() error {
			results[i] = runScenario(gctx, file, opts)
			return nil
		})
	}
	_ = g.Wait()

	result := TestResult{Scenarios: results, Total: len(results)}
	for _, r := range results {
		if r.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles finds all YAML scenario files under dir. Golden and
// program directories are skipped.
func findScenarioFiles(dir string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (d.Name() == "golden" || d.Name() == "programs") {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			if matched, _ := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext)); !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

// runScenario executes a single scenario and returns the result.
func runScenario(ctx context.Context, scenarioFile string, opts *TestOptions) ScenarioResult {
	name := strings.TrimSuffix(filepath.Base(scenarioFile), filepath.Ext(scenarioFile))

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:   name,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}
	name = scenario.Name

	result, err := harness.Run(ctx, scenario, harness.WithLogger(opts.logger()))
	if err != nil {
		return ScenarioResult{
			Name:   name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	goldenPath := goldenFilePath(scenarioFile)
	if opts.Update {
		if err := writeGolden(goldenPath, scenario, result); err != nil {
			return ScenarioResult{
				Name:   name,
				Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)},
			}
		}
		return ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Errors, note: "golden updated"}
	}

	if _, err := os.Stat(goldenPath); err == nil {
		match, err := compareWithGolden(goldenPath, scenario, result)
		if err != nil {
			return ScenarioResult{
				Name:   name,
				Errors: []string{fmt.Sprintf("golden comparison failed: %v", err)},
			}
		}
		if !match {
			result.AddError("run does not match golden file (run with --update to regenerate)")
		}
	}

	return ScenarioResult{Name: name, Pass: result.Pass, Errors: result.Errors}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// writeGolden writes the canonical snapshot of a run as its golden file.
func writeGolden(goldenPath string, scenario *harness.Scenario, result *harness.Result) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	snapshot := harness.NewSnapshot(scenario.Name, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return os.WriteFile(goldenPath, data, 0644)
}

// compareWithGolden compares the canonical snapshot of a run with the
// golden file byte for byte.
func compareWithGolden(goldenPath string, scenario *harness.Scenario, result *harness.Result) (bool, error) {
	want, err := os.ReadFile(goldenPath)
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	snapshot := harness.NewSnapshot(scenario.Name, result)
	got, err := snapshot.MarshalCanonical()
	if err != nil {
		return false, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return bytes.Equal(bytes.TrimSpace(want), got), nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	for _, r := range result.Scenarios {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		if r.note != "" {
			fmt.Fprintf(w, "%s %s (%s)\n", mark, r.Name, r.note)
		} else {
			fmt.Fprintf(w, "%s %s\n", mark, r.Name)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
