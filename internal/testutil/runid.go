package testutil

// FixedRunIDGenerator generates the same run id every time.
//
// This enables deterministic test execution and golden snapshot comparison:
// the same scenario with the same FixedRunIDGenerator produces byte-identical
// answer-set ids.
//
// Unlike engine.FixedGenerator which returns ids in sequence, this generator
// always returns the same id, so a processor can be run any number of times.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run id generator.
//
// The id is typically set in the scenario YAML:
//
//	run_id: "test-run-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
