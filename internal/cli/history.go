package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/engine"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
	"github.com/roach88/hexeval/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	DBPath string // database to read
	Replay bool   // re-evaluate the run and compare answer sets
}

// RunDetail is the JSON payload for a single run.
type RunDetail struct {
	Run        store.Run             `json:"run"`
	Evals      []store.ComponentEval `json:"evals"`
	AnswerSets [][]string            `json:"answer_sets"`
	Replay     *ReplayResult         `json:"replay,omitempty"`
}

// ReplayResult reports whether re-evaluating a stored run reproduced it.
type ReplayResult struct {
	Match     bool   `json:"match"`
	HashMatch bool   `json:"hash_match"`
	Diff      string `json:"diff,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `List the runs recorded with "solve --db", or show one run with its
component trace and answer sets.

With --replay the stored program is evaluated again and its answer sets
are compared with the recorded ones. Atoms of internal predicates are
ignored by the comparison.

Exit codes:
  0 - Success (replay reproduced the run)
  1 - Replay produced different answer sets
  2 - Command error (database not found, unknown run, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if len(args) == 0 {
				return runHistoryList(ctx, opts, cmd)
			}
			return runHistoryShow(ctx, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().BoolVar(&opts.Replay, "replay", false, "re-evaluate the run and compare answer sets")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

// openHistory opens an existing database. A missing file is a command
// error rather than a fresh empty database.
func openHistory(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runHistoryList(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openHistory(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx)
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, ExitCommandError, "failed to list runs", err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-12s  %6s  %s\n", "RUN", "STATUS", "MODELS", "PROGRAM")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-12s  %6d  %s\n", r.ID, r.Status, r.ModelCount, shortHash(r.ProgramHash))
	}
	return nil
}

func runHistoryShow(ctx context.Context, opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := openHistory(opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return formatter.Fail(ErrCodeNotFound, ExitCommandError, fmt.Sprintf("run not found: %s", runID), nil)
	}
	if err != nil {
		return formatter.Fail(ErrCodeStoreFailed, ExitCommandError, "failed to read run", err)
	}

	detail := RunDetail{Run: run, AnswerSets: [][]string{}}
	if detail.Evals, err = st.ReadComponentEvals(ctx, runID); err != nil {
		return WrapExitError(ExitCommandError, "failed to read component evaluations", err)
	}
	sets, err := st.ReadAnswerSets(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read answer sets", err)
	}
	recorded := make([]ir.Interpretation, len(sets))
	for i, as := range sets {
		recorded[i] = as.Model
		detail.AnswerSets = append(detail.AnswerSets, as.Model.Strings())
	}

	if opts.Replay {
		detail.Replay, err = replayRun(ctx, run, recorded, opts.logger())
		if err != nil {
			return reportProgramError(formatter, err, ExitCommandError)
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(detail); err != nil {
			return err
		}
	} else {
		outputRunText(formatter, detail)
	}

	if detail.Replay != nil && !detail.Replay.Match {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: replay of %s differs", ErrCodeNotDeterministic, run.ID))
	}
	return nil
}

func outputRunText(f *OutputFormatter, d RunDetail) {
	w := f.Writer
	fmt.Fprintf(w, "Run %s\n", d.Run.ID)
	fmt.Fprintf(w, "  status:  %s\n", d.Run.Status)
	if d.Run.Error != "" {
		fmt.Fprintf(w, "  error:   %s\n", d.Run.Error)
	}
	fmt.Fprintf(w, "  program: %s\n", shortHash(d.Run.ProgramHash))
	fmt.Fprintf(w, "  engine:  %s (ir %s)\n", d.Run.EngineVersion, d.Run.IRVersion)

	fmt.Fprintf(w, "\nComponents (%d):\n", len(d.Evals))
	for _, ev := range d.Evals {
		fmt.Fprintf(w, "  [%d] %s/%s %s %d -> %d (%s)\n", ev.Seq, ev.Subgraph, ev.Component, ev.Kind, ev.Inputs, ev.Outputs, ev.Duration)
	}

	fmt.Fprintf(w, "\nAnswer sets (%d):\n", len(d.AnswerSets))
	for i, m := range d.AnswerSets {
		fmt.Fprintf(w, "  %d: {%s}\n", i+1, strings.Join(m, ", "))
	}

	if r := d.Replay; r != nil {
		fmt.Fprintln(w)
		if r.Match {
			fmt.Fprintln(w, "✓ Replay reproduced the run")
		} else {
			fmt.Fprintln(w, "✗ Replay differs")
			if r.ErrorCode != "" {
				fmt.Fprintf(w, "  error: %s\n", r.ErrorCode)
			}
			if r.Diff != "" {
				fmt.Fprintf(w, "  answer sets (-recorded +replayed):\n%s", r.Diff)
			}
		}
		if !r.HashMatch {
			fmt.Fprintln(w, "  note: reconstructed program hash differs from the recorded one")
		}
	}
}

// replayRun evaluates the stored program of run again with the built-in
// plugins and compares the visible part of its answer sets with recorded.
func replayRun(ctx context.Context, run store.Run, recorded []ir.Interpretation, logger *slog.Logger) (*ReplayResult, error) {
	doc, err := parseStoredProgram(run.Program)
	if err != nil {
		return nil, err
	}
	reg := plugin.DefaultRegistry()
	prog, err := compiler.Build(doc, reg)
	if err != nil {
		return nil, err
	}

	result := &ReplayResult{}
	if hash, err := ir.ProgramHash(prog); err == nil {
		result.HashMatch = hash == run.ProgramHash
	}

	proc := engine.ForProgram(prog, reg,
		engine.WithRunIDs(engine.NewFixedGenerator(run.ID+"-replay")),
		engine.WithLogger(logger),
	)
	models, runErr := proc.Run(ctx, prog.EDB())
	if runErr != nil {
		evalErr, ok := ir.AsEvalError(runErr)
		if !ok {
			return nil, runErr
		}
		result.ErrorCode = string(evalErr.Code)
		result.Match = run.Status == store.StatusFailed
		logger.Debug("replay failed", "run", run.ID, "code", evalErr.Code)
		return result, nil
	}
	if run.Status == store.StatusFailed {
		return result, nil
	}

	want, got := visibleStrings(recorded), visibleStrings(models)
	result.Diff = cmp.Diff(want, got)
	result.Match = result.Diff == ""
	logger.Debug("replay finished", "run", run.ID, "models", len(models), "match", result.Match)
	return result, nil
}

func visibleStrings(models []ir.Interpretation) [][]string {
	var set ir.ModelSet
	for _, m := range models {
		set.Add(m.Visible())
	}
	out := set.Models()
	ir.SortModels(out)
	strs := make([][]string, len(out))
	for i, m := range out {
		strs[i] = m.Strings()
	}
	return strs
}

// parseStoredProgram turns the program text of a run back into a document.
// Leading ground atoms without a body become facts; every other line is a
// rule.
func parseStoredProgram(text string) (*compiler.ProgramDoc, error) {
	doc := &compiler.ProgramDoc{}
	inFacts := true
	for n, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if inFacts {
			r, err := ir.ParseRule(line)
			if err != nil {
				return nil, fmt.Errorf("stored program line %d: %w", n+1, err)
			}
			if len(r.Body) == 0 && len(r.Head) == 1 && r.Head[0].IsGround() {
				doc.Facts = append(doc.Facts, line)
				continue
			}
			inFacts = false
		}
		doc.Rules = append(doc.Rules, compiler.RuleDoc{Text: line})
	}
	return doc, nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
