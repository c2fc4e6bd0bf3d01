package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hexeval/internal/ir"
)

// Snapshot captures the deterministic part of a scenario execution.
// Durations are left out.
type Snapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id"`
	Models       [][]string   `json:"models"`
	Trace        []TraceEvent `json:"trace"`
	ErrorCode    string       `json:"error_code,omitempty"`
}

// NewSnapshot captures result under name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		RunID:        result.RunID,
		Models:       result.Models,
		Trace:        result.Trace,
		ErrorCode:    result.ErrorCode,
	}
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization. ir.MarshalCanonical only handles primitives, slices and maps.
func (s *Snapshot) toCanonicalMap() map[string]any {
	models := make([]any, len(s.Models))
	for i, m := range s.Models {
		models[i] = m
	}
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = map[string]any{
			"seq":       ev.Seq,
			"subgraph":  ev.Subgraph,
			"component": ev.Component,
			"kind":      ev.Kind,
			"inputs":    ev.Inputs,
			"outputs":   ev.Outputs,
		}
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"run_id":        s.RunID,
		"models":        models,
		"trace":         trace,
	}
	if s.ErrorCode != "" {
		out["error_code"] = s.ErrorCode
	}
	return out
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s *Snapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result, or an error if the scenario could not be executed.
// A snapshot mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares result's snapshot against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := NewSnapshot(scenarioName, result)
	data, err := snapshot.MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
