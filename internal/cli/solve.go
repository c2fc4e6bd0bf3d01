package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/hexeval/internal/depgraph"
	"github.com/roach88/hexeval/internal/engine"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/oracle"
	"github.com/roach88/hexeval/internal/plugin"
	"github.com/roach88/hexeval/internal/store"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	DBPath    string   // record the run in this database
	MaxModels int      // print at most this many answer sets (0 = all)
	MaxRounds int      // fixpoint round cap (0 = engine default)
	Internal  bool     // keep internal atoms in answer sets
	Filter    []string // project answer sets onto these predicates

	// Registry overrides plugin.DefaultRegistry(). Used by tests.
	Registry *plugin.Registry
}

// SolveResult is the JSON payload of the solve command.
type SolveResult struct {
	RunID  string     `json:"run_id"`
	Status string     `json:"status"` // "solved" or "inconsistent"
	Count  int        `json:"count"`
	Models [][]string `json:"models"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <program>",
		Short: "Compute the answer sets of a program",
		Long: `Compute the answer sets of a HEX program given as a .cue or .yaml file.

Exit codes:
  0 - Program solved (including inconsistent programs)
  1 - Evaluation failed (fixpoint divergence, plugin error, etc.)
  2 - Command error (missing file, invalid program, etc.)

Examples:
  hexeval solve program.cue
  hexeval solve program.yaml --filter p,q
  hexeval solve program.cue --db runs.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the run in this SQLite database")
	cmd.Flags().IntVar(&opts.MaxModels, "max-models", 0, "print at most N answer sets (0 = all)")
	cmd.Flags().IntVar(&opts.MaxRounds, "max-rounds", 0, "fixpoint round cap (0 = default)")
	cmd.Flags().BoolVar(&opts.Internal, "internal", false, "keep internal atoms in answer sets")
	cmd.Flags().StringSliceVar(&opts.Filter, "filter", nil, "only show atoms of these predicates (comma-separated)")

	return cmd
}

func runSolve(ctx context.Context, opts *SolveOptions, path string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if opts.MaxModels < 0 {
		return NewExitError(ExitCommandError, "--max-models must be non-negative")
	}

	reg := opts.Registry
	if reg == nil {
		reg = plugin.DefaultRegistry()
	}
	prog, err := loadProgram(path, reg)
	if err != nil {
		return reportProgramError(formatter, err, ExitCommandError)
	}
	formatter.VerboseLog("Loaded %d rule(s) and %d fact(s) from %s", len(prog.Rules), len(prog.Facts), path)

	rec := &evalRecorder{}
	engineOpts := []engine.Option{
		engine.WithObserver(rec),
		engine.WithInternalAtoms(opts.Internal),
		engine.WithLogger(logger),
		engine.WithMaxFixpointRounds(opts.MaxRounds),
	}
	proc := engine.New(
		depgraph.Build(prog),
		oracle.New(oracle.WithLogger(logger)),
		plugin.NewEvaluator(reg).WithLogger(logger),
		engineOpts...,
	)

	models, runErr := proc.Run(ctx, prog.EDB())

	if opts.DBPath != "" {
		if err := recordRun(ctx, opts.DBPath, proc.RunID(), prog, rec.evals(), models, runErr); err != nil {
			return formatter.Fail(ErrCodeStoreFailed, ExitCommandError, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", proc.RunID(), opts.DBPath)
	}

	if runErr != nil {
		return reportProgramError(formatter, runErr, ExitFailure)
	}

	if len(opts.Filter) > 0 {
		models = project(models, opts.Filter)
	}
	total := len(models)
	if opts.MaxModels > 0 && len(models) > opts.MaxModels {
		models = models[:opts.MaxModels]
	}

	result := SolveResult{
		RunID:  proc.RunID(),
		Status: string(store.StatusSolved),
		Count:  total,
		Models: make([][]string, len(models)),
	}
	if total == 0 {
		result.Status = string(store.StatusInconsistent)
	}
	for i, m := range models {
		result.Models[i] = m.Strings()
	}

	if opts.Format == "json" {
		return formatter.Run(result.RunID, result)
	}
	return outputSolveText(formatter, result)
}

func outputSolveText(f *OutputFormatter, result SolveResult) error {
	w := f.Writer
	for i, m := range result.Models {
		fmt.Fprintf(w, "Answer %d: {%s}\n", i+1, strings.Join(m, ", "))
	}
	if result.Count == 0 {
		fmt.Fprintln(w, "INCONSISTENT")
		return nil
	}
	fmt.Fprintf(w, "SATISFIABLE (%d answer set(s))\n", result.Count)
	return nil
}

// project restricts every model to the given predicates. Models that
// become equal are merged; the result keeps ir.SortModels order.
func project(models []ir.Interpretation, preds []string) []ir.Interpretation {
	keep := make(map[string]bool, len(preds))
	for _, p := range preds {
		keep[strings.TrimSpace(p)] = true
	}
	var set ir.ModelSet
	for _, m := range models {
		set.Add(m.Filter(func(a ir.Atom) bool { return keep[a.Predicate] }))
	}
	out := set.Models()
	ir.SortModels(out)
	return out
}

// recordRun writes a finished run with its trace and answer sets to the
// database at dbPath.
func recordRun(ctx context.Context, dbPath, runID string, prog *ir.Program, evals []store.ComponentEval, models []ir.Interpretation, runErr error) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := store.NewRun(runID, prog)
	if err != nil {
		return err
	}
	switch {
	case runErr != nil:
		run.Status, run.Error = store.StatusFailed, runErr.Error()
	case len(models) == 0:
		run.Status = store.StatusInconsistent
	default:
		run.Status = store.StatusSolved
	}
	run.ModelCount = len(models)
	return st.RecordRun(ctx, run, evals, models)
}

// evalRecorder collects component evaluations as store records.
type evalRecorder struct {
	mu   sync.Mutex
	list []store.ComponentEval
}

// ComponentEvaluated implements engine.Observer.
func (r *evalRecorder) ComponentEvaluated(ev engine.ComponentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, store.ComponentEval{
		RunID:     ev.RunID,
		Seq:       ev.Seq,
		Subgraph:  ev.Subgraph,
		Component: ev.Component,
		Kind:      ev.Kind.String(),
		Inputs:    ev.Inputs,
		Outputs:   ev.Outputs,
		Duration:  ev.Duration,
	})
}

func (r *evalRecorder) evals() []store.ComponentEval {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]store.ComponentEval(nil), r.list...)
}
