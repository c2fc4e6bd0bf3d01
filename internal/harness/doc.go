// Package harness provides conformance testing for HEX programs.
//
// The harness loads scenarios, evaluates their programs with the real
// engine, records each run in an in-memory store and checks the answer
// sets and evaluation trace read back from it.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	program:                  # or program_file: path/to/program.cue
//	  facts: ["d(1)", "d(2)"]
//	  rules:
//	    - "p(X) :- d(X), &diff[d,q](X)."
//	    - head: ["q(X)"]
//	      body: ["d(X)", "&diff[d,p](X)"]
//	edb: ["d(3)"]             # extra facts
//	options:
//	  internal_atoms: false
//	  max_fixpoint_rounds: 10
//	expect:
//	  models:
//	    - ["d(1)", "p(1)"]
//	assertions:
//	  - type: some_model_contains
//	    atoms: ["p(1)"]
//
// program_file paths are relative to the scenario file.
//
// # Assertion Types
//
//   - model_count: exactly count answer sets
//   - all_models_contain: every answer set contains atoms
//   - some_model_contains: at least one answer set contains atoms
//   - no_model_contains: no answer set contains all of atoms
//   - inconsistent: the program has no answer set
//   - component_kind: the trace evaluates component with kind
//   - evaluation_order: components are evaluated in the given order
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id (scenario.run_id, or
// "test-run-default") and the engine's logical clock, so answer sets and
// traces are identical across runs and can be compared against golden
// snapshots.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/diff.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
