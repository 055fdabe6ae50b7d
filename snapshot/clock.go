package snapshot

import (
	"sync/atomic"
	"time"
)

// Clock hands out strictly increasing UTC timestamps: each call returns
// the wall clock, or one nanosecond past the previous value if the wall
// clock has not moved on. It is safe for concurrent use.
type Clock struct {
	last atomic.Int64
	now  func() time.Time
}

// NewClock creates a Clock reading time.Now.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// NewClockFunc creates a Clock reading now; tests use it to freeze time.
func NewClockFunc(now func() time.Time) *Clock {
	return &Clock{now: now}
}

// Next returns the next timestamp.
func (c *Clock) Next() time.Time {
	for {
		prev := c.last.Load()
		next := c.now().UnixNano()
		if next <= prev {
			next = prev + 1
		}
		if c.last.CompareAndSwap(prev, next) {
			return time.Unix(0, next).UTC()
		}
	}
}

// Observe advances the clock to at least t, so timestamps handed out
// afterwards sort after records already persisted.
func (c *Clock) Observe(t time.Time) {
	ns := t.UnixNano()
	for {
		prev := c.last.Load()
		if ns <= prev || c.last.CompareAndSwap(prev, ns) {
			return
		}
	}
}
