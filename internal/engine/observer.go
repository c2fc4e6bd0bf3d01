package engine

import (
	"time"

	"github.com/roach88/hexeval/internal/component"
)

// ComponentEvent reports one component evaluation.
type ComponentEvent struct {
	RunID     string
	Seq       int64
	Subgraph  string
	Component string
	Kind      component.Kind
	Inputs    int
	Outputs   int
	Duration  time.Duration
}

// Observer receives an event after every successful component evaluation.
// Observers run on the evaluating goroutine and must not block.
type Observer interface {
	ComponentEvaluated(ev ComponentEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev ComponentEvent)

// ComponentEvaluated calls f.
func (f ObserverFunc) ComponentEvaluated(ev ComponentEvent) { f(ev) }

type nopObserver struct{}

func (nopObserver) ComponentEvaluated(ComponentEvent) {}
