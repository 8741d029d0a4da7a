package engine

import "sync/atomic"

// Clock is the logical clock that numbers the steps of a run.
//
// The first step of a run is seq 1. Seq values only ever grow, so ordering
// the run log by seq reproduces the order in which steps were applied.
//
// Clock is safe for concurrent use, although an Executor serialises all
// Execute calls and is the only caller in practice.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock positioned before the first step.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next step is start+1.
// Used by Resume to continue a run from its last recorded step.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the seq of the last step taken, or the start position.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
