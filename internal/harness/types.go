package harness

// TraceEvent is one component evaluation of a scenario run.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Subgraph  string `json:"subgraph"`
	Component string `json:"component"`
	Kind      string `json:"kind"`
	Inputs    int    `json:"inputs"`
	Outputs   int    `json:"outputs"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation and assertion holds.
	Pass bool `json:"pass"`

	// RunID names the engine run.
	RunID string `json:"run_id"`

	// Models are the answer sets as read back from the store, in order.
	Models [][]string `json:"models"`

	// Trace holds the component evaluations in sequence order.
	Trace []TraceEvent `json:"trace"`

	// ErrorCode is the code of a fatal evaluation error, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Models: [][]string{},
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Inconsistent reports whether the run finished without answer sets.
func (r *Result) Inconsistent() bool {
	return r.ErrorCode == "" && len(r.Models) == 0
}
