package sim

import (
	"sync"
	"time"
)

// Clock is a virtual clock. Sleep returns at once after moving time forward,
// and every Now call advances time by a fixed step so that successive
// readings are strictly ordered.
type Clock struct {
	mu    sync.Mutex
	now   time.Time
	step  time.Duration
	slept time.Duration
}

// NewClock returns a clock starting at start.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Sleep advances the clock by d.
func (c *Clock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept += d
}

// Slept returns the total time passed to Sleep.
func (c *Clock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
