package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/engine"
	"github.com/roach88/hexeval/internal/ir"
	"github.com/roach88/hexeval/internal/plugin"
	"github.com/roach88/hexeval/internal/store"
	"github.com/roach88/hexeval/internal/testutil"
)

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	registry *plugin.Registry
	logger   *slog.Logger
}

// WithRegistry evaluates external atoms with reg instead of
// plugin.DefaultRegistry().
func WithRegistry(reg *plugin.Registry) RunOption {
	return func(c *runConfig) {
		if reg != nil {
			c.registry = reg
		}
	}
}

// WithLogger sets the engine's logger. Logs are discarded by default.
func WithLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation:
//  1. compile the program with the scenario's extra facts
//  2. evaluate it with a fixed run id
//  3. record the run, its trace and its answer sets
//  4. read them back and check expectations and assertions
//
// A program that fails to compile is an error. An evaluation error is
// part of the result.
func Run(ctx context.Context, scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		registry: plugin.DefaultRegistry(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	prog, err := loadProgram(scenario, cfg.registry)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runIDs := testutil.NewFixedRunIDGenerator(scenario.RunID)
	run, err := store.NewRun(runIDs.Generate(), prog)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	var (
		mu    sync.Mutex
		evals []store.ComponentEval
	)
	observer := engine.ObserverFunc(func(ev engine.ComponentEvent) {
		mu.Lock()
		defer mu.Unlock()
		evals = append(evals, store.ComponentEval{
			RunID:     ev.RunID,
			Seq:       ev.Seq,
			Subgraph:  ev.Subgraph,
			Component: ev.Component,
			Kind:      ev.Kind.String(),
			Inputs:    ev.Inputs,
			Outputs:   ev.Outputs,
			Duration:  ev.Duration,
		})
	})

	engineOpts := []engine.Option{
		engine.WithRunIDs(runIDs),
		engine.WithObserver(observer),
		engine.WithInternalAtoms(scenario.Options.InternalAtoms),
		engine.WithLogger(cfg.logger),
	}
	if scenario.Options.MaxFixpointRounds > 0 {
		engineOpts = append(engineOpts, engine.WithMaxFixpointRounds(scenario.Options.MaxFixpointRounds))
	}
	proc := engine.ForProgram(prog, cfg.registry, engineOpts...)

	result := NewResult()
	result.RunID = run.ID

	models, runErr := proc.Run(ctx, prog.EDB())
	switch {
	case runErr != nil:
		evalErr, ok := ir.AsEvalError(runErr)
		if !ok {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, runErr)
		}
		result.ErrorCode = string(evalErr.Code)
		run.Status, run.Error = store.StatusFailed, runErr.Error()
	case len(models) == 0:
		run.Status = store.StatusInconsistent
	default:
		run.Status = store.StatusSolved
	}
	run.ModelCount = len(models)

	if err := st.RecordRun(ctx, run, evals, models); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if err := readBack(ctx, st, run.ID, result); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	if scenario.Expect != nil {
		checkExpectation(scenario.Expect, result)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	cfg.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"run", run.ID,
		"models", len(result.Models),
		"pass", result.Pass)
	return result, nil
}

// loadProgram compiles the scenario's program with its extra facts.
func loadProgram(s *Scenario, reg *plugin.Registry) (*ir.Program, error) {
	doc := s.Program
	if s.ProgramFile != "" {
		data, err := os.ReadFile(s.ProgramFile)
		if err != nil {
			return nil, fmt.Errorf("read program: %w", err)
		}
		if doc, err = compiler.ParseDocument(data, s.ProgramFile); err != nil {
			return nil, err
		}
	}

	withEDB := compiler.ProgramDoc{
		Facts: append(slices.Clone(doc.Facts), s.EDB...),
		Rules: doc.Rules,
	}
	return compiler.Build(&withEDB, reg)
}

// readBack fills result from the stored run.
func readBack(ctx context.Context, st *store.Store, runID string, result *Result) error {
	sets, err := st.ReadAnswerSets(ctx, runID)
	if err != nil {
		return err
	}
	for _, as := range sets {
		result.Models = append(result.Models, as.Model.Strings())
	}

	evals, err := st.ReadComponentEvals(ctx, runID)
	if err != nil {
		return err
	}
	for _, ev := range evals {
		result.Trace = append(result.Trace, TraceEvent{
			Seq:       ev.Seq,
			Subgraph:  ev.Subgraph,
			Component: ev.Component,
			Kind:      ev.Kind,
			Inputs:    ev.Inputs,
			Outputs:   ev.Outputs,
		})
	}
	return nil
}

// checkExpectation compares the run's outcome with e.
func checkExpectation(e *Expectation, result *Result) {
	switch {
	case e.Error != "":
		if result.ErrorCode != e.Error {
			result.AddError(fmt.Sprintf("expected error %s, got %s", e.Error, describeOutcome(result)))
		}
	case e.Inconsistent:
		if !result.Inconsistent() {
			result.AddError(fmt.Sprintf("expected no answer sets, got %s", describeOutcome(result)))
		}
	default:
		if result.ErrorCode != "" {
			result.AddError(fmt.Sprintf("expected %d answer sets, got %s", len(e.Models), describeOutcome(result)))
			return
		}
		want := make([][]string, len(e.Models))
		for i, m := range e.Models {
			want[i] = canonicalAtoms(m)
		}
		if diff := cmp.Diff(want, result.Models, modelOrder); diff != "" {
			result.AddError(fmt.Sprintf("answer sets mismatch (-want +got):\n%s", diff))
		}
	}
}

// modelOrder ignores the order of answer sets. Atoms within a model are
// already canonical.
var modelOrder = cmpopts.SortSlices(func(a, b []string) bool {
	return strings.Join(a, " ") < strings.Join(b, " ")
})

func describeOutcome(result *Result) string {
	if result.ErrorCode != "" {
		return "error " + result.ErrorCode
	}
	return fmt.Sprintf("%d answer sets", len(result.Models))
}
