package farm

import (
	"sync"
	"time"
)

// Clock supplies the current time, in unix seconds, at the start of each
// farm call. Accrual only ever happens against this value.
type Clock interface {
	Now() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a settable clock for tests and simulations.
type ManualClock struct {
	mu  sync.Mutex
	now uint64
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start uint64) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by seconds.
func (c *ManualClock) Advance(seconds uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// Set moves the clock to t.
func (c *ManualClock) Set(t uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
