package registry

import "sync/atomic"

// Clock is the monotonic logical clock for audit ordering.
//
// Every audit entry and event is stamped with a strictly increasing seq
// number from this clock. Logical stamps, not wall-clock timestamps,
// define the order of the trail:
//   - no wall-clock race conditions or clock skew
//   - repeated reads observe the same order
//   - verification walks entries in a well-defined sequence
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// The registry's single-writer design means only one goroutine
// typically calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence number.
// Used at startup to resume from the last persisted stamp.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
