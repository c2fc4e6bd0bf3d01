package engine

import "sync/atomic"

// Clock stamps evaluation events with strictly increasing sequence
// numbers, starting at 1. Never use wall-clock time for ordering events.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Reset restarts the clock.
func (c *Clock) Reset() {
	c.seq.Store(0)
}
