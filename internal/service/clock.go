package service

import (
	"sync"
	"time"
)

// Clock stamps created_at values.
//
// Now never returns a time earlier than one it already returned, even if the
// wall clock is stepped back (NTP, VM resume), so created_at follows insertion
// order within a process. Times are UTC and truncated to milliseconds, the
// coarsest precision of the supported stores, so a value reads back equal
// to what was written.
type Clock struct {
	mu   sync.Mutex
	wall func() time.Time
	last time.Time
}

func NewClock() *Clock {
	return &Clock{wall: time.Now}
}

// newClockAt lets tests drive the wall clock.
func newClockAt(wall func() time.Time) *Clock {
	return &Clock{wall: wall}
}

func (c *Clock) Now() time.Time {
	now := c.wall().UTC().Truncate(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Before(c.last) {
		now = c.last
	}
	c.last = now
	return now
}
