package engine

import "sync/atomic"

// Clock is a monotonic logical clock for result ordering.
//
// Every result is stamped with a strictly increasing seq number from
// this clock, so report ordering never depends on wall-clock timing.
//
// Thread-safety: safe for concurrent use, though the engine's
// single-pass execution means only one goroutine calls Next().
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
// Each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
