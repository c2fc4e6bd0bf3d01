package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hexeval/internal/compiler"
	"github.com/roach88/hexeval/internal/ir"
)

// Scenario defines a conformance test scenario: a program, the facts it
// runs against and the answer sets it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is an inline program document.
	Program *compiler.ProgramDoc `yaml:"program,omitempty"`

	// ProgramFile is a .cue or .yaml program document. LoadScenario
	// resolves it relative to the scenario file.
	ProgramFile string `yaml:"program_file,omitempty"`

	// EDB lists ground facts added to the program's own.
	EDB []string `yaml:"edb,omitempty"`

	// Options tune the engine.
	Options Options `yaml:"options,omitempty"`

	// Expect is compared against the run's outcome. Nil skips the check.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions validate the answer sets and the trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run id for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Options configure the engine for one scenario.
type Options struct {
	InternalAtoms     bool `yaml:"internal_atoms,omitempty"`
	MaxFixpointRounds int  `yaml:"max_fixpoint_rounds,omitempty"`
}

// Expectation is the exact outcome of a run. At most one of Models,
// Inconsistent and Error is set.
type Expectation struct {
	// Models are the expected answer sets. Order does not matter, neither
	// within a model nor between models.
	Models [][]string `yaml:"models,omitempty"`

	// Inconsistent expects no answer set.
	Inconsistent bool `yaml:"inconsistent,omitempty"`

	// Error is the expected evaluation error code, e.g. FIXPOINT_DIVERGED.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates answer sets or the trace.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Atoms are ground atoms (model_count excluded).
	Atoms []string `yaml:"atoms,omitempty"`

	// Count is the expected number of answer sets (model_count).
	Count int `yaml:"count,omitempty"`

	// Component and Kind name a component and its kind (component_kind).
	Component string `yaml:"component,omitempty"`
	Kind      string `yaml:"kind,omitempty"`

	// Components is the expected evaluation order (evaluation_order).
	Components []string `yaml:"components,omitempty"`
}

// Assertion type constants.
const (
	AssertModelCount        = "model_count"
	AssertAllModelsContain  = "all_models_contain"
	AssertSomeModelContains = "some_model_contains"
	AssertNoModelContains   = "no_model_contains"
	AssertInconsistent      = "inconsistent"
	AssertComponentKind     = "component_kind"
	AssertEvaluationOrder   = "evaluation_order"
)

var componentKinds = map[string]bool{
	"ordinary":    true,
	"fixpoint":    true,
	"guess-check": true,
	"external":    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ProgramFile != "" && !filepath.IsAbs(scenario.ProgramFile) {
		scenario.ProgramFile = filepath.Join(filepath.Dir(path), scenario.ProgramFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == nil && s.ProgramFile == "":
		return fmt.Errorf("program or program_file is required")
	case s.Program != nil && s.ProgramFile != "":
		return fmt.Errorf("program and program_file are mutually exclusive")
	}
	if s.ProgramFile != "" {
		if _, err := os.Stat(s.ProgramFile); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.ProgramFile)
		}
	}

	for i, f := range s.EDB {
		if _, err := ir.ParseInterpretation(f); err != nil {
			return fmt.Errorf("edb[%d]: %w", i, err)
		}
	}

	if s.Options.MaxFixpointRounds < 0 {
		return fmt.Errorf("options.max_fixpoint_rounds must be non-negative")
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if e := s.Expect; e != nil {
		set := 0
		for _, b := range []bool{e.Models != nil, e.Inconsistent, e.Error != ""} {
			if b {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("expect: exactly one of models, inconsistent and error is required")
		}
		for i, m := range e.Models {
			if _, err := ir.ParseInterpretation(m...); err != nil {
				return fmt.Errorf("expect.models[%d]: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertModelCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for model_count", index)
		}
	case AssertAllModelsContain, AssertSomeModelContains, AssertNoModelContains:
		if len(a.Atoms) == 0 {
			return fmt.Errorf("assertions[%d]: atoms list is required for %s", index, a.Type)
		}
		if _, err := ir.ParseInterpretation(a.Atoms...); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertInconsistent:
	case AssertComponentKind:
		if a.Component == "" {
			return fmt.Errorf("assertions[%d]: component is required for component_kind", index)
		}
		if !componentKinds[a.Kind] {
			return fmt.Errorf("assertions[%d]: unknown component kind %q", index, a.Kind)
		}
	case AssertEvaluationOrder:
		if len(a.Components) == 0 {
			return fmt.Errorf("assertions[%d]: components list is required for evaluation_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
