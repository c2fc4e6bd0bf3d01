package store

import (
	"time"

	"github.com/roach88/hexeval/internal/ir"
)

// RunStatus is the outcome of a run.
type RunStatus string

const (
	StatusRunning      RunStatus = "running"
	StatusSolved       RunStatus = "solved"       // at least one answer set
	StatusInconsistent RunStatus = "inconsistent" // no answer set
	StatusFailed       RunStatus = "failed"       // fatal evaluation error
)

// Run is one evaluation of a program.
type Run struct {
	ID            string    `json:"id"`
	ProgramHash   string    `json:"program_hash"`
	Program       string    `json:"program"` // facts and rules in program syntax
	EngineVersion string    `json:"engine_version"`
	IRVersion     string    `json:"ir_version"`
	Status        RunStatus `json:"status"`
	Error         string    `json:"error,omitempty"`
	ModelCount    int       `json:"model_count"`
}

// NewRun describes a run of prog that has not finished yet.
func NewRun(id string, prog *ir.Program) (Run, error) {
	hash, err := ir.ProgramHash(prog)
	if err != nil {
		return Run{}, err
	}
	return Run{
		ID:            id,
		ProgramHash:   hash,
		Program:       prog.String(),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
		Status:        StatusRunning,
	}, nil
}

// ComponentEval is one component evaluation within a run.
type ComponentEval struct {
	RunID     string        `json:"run_id"`
	Seq       int64         `json:"seq"`
	Subgraph  string        `json:"subgraph"`
	Component string        `json:"component"`
	Kind      string        `json:"kind"`
	Inputs    int           `json:"inputs"`
	Outputs   int           `json:"outputs"`
	Duration  time.Duration `json:"duration"`
}

// AnswerSet is one model of a run. Index is its position in the sorted
// model list.
type AnswerSet struct {
	ID    string            `json:"id"`
	RunID string            `json:"run_id"`
	Index int               `json:"index"`
	Model ir.Interpretation `json:"-"`
}
