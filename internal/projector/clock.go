package projector

import "sync/atomic"

// Clock is the logical clock behind State.Version.
//
// Every applied event takes the next value, so two snapshots with the same
// Version are the same state.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations), though
// only the Run loop advances it.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
