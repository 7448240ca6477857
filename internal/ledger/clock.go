package ledger

import "sync/atomic"

// ManualClock is a settable clock. Bundles replayed from a request log set it
// to each request's timestamp.
type ManualClock struct {
	now atomic.Uint64
}

// NewManualClock returns a clock reading now.
func NewManualClock(now uint64) *ManualClock {
	c := &ManualClock{}
	c.now.Store(now)
	return c
}

// Now returns the current setting.
func (c *ManualClock) Now() uint64 { return c.now.Load() }

// Set moves the clock to now.
func (c *ManualClock) Set(now uint64) { c.now.Store(now) }

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d uint64) { c.now.Add(d) }
