// Package testutil provides deterministic fixtures for ledger tests.
package testutil

import (
	"sync"
	"time"
)

// WallClock is a deterministic time source for tests.
//
// Each call to Now advances the clock by a fixed step, so a scenario
// produces the same timestamps on every run and golden trails stay
// byte-identical.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type WallClock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	start time.Time
}

// NewWallClock creates a clock starting at start and advancing by step
// on every Now call.
func NewWallClock(start time.Time, step time.Duration) *WallClock {
	return &WallClock{now: start.UTC(), start: start.UTC(), step: step}
}

// DefaultWallClock starts at 2026-01-02T10:00:00Z and advances one
// second per call. Good enough for most scenarios.
func DefaultWallClock() *WallClock {
	return NewWallClock(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC), time.Second)
}

// Now returns the current instant and advances the clock.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Reset rewinds the clock to its start instant.
func (c *WallClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
