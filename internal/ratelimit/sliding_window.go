package ratelimit

import (
	"sync"
	"time"
)

// SlidingWindowCounter approximates a rolling window with two fixed windows:
//
//	effective = current + previous × (time left in current window / window)
//
// It needs O(1) memory per key, which keeps per-guild daily quotas cheap.
type SlidingWindowCounter struct {
	mu          sync.Mutex
	now         Clock
	curr        int
	prev        int
	windowStart time.Time
	window      time.Duration
	limit       int
}

// NewSlidingWindowCounter returns nil (unlimited) when limit <= 0.
func NewSlidingWindowCounter(limit int, window time.Duration, clock Clock) *SlidingWindowCounter {
	if limit <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &SlidingWindowCounter{
		now:         clock,
		windowStart: clock(),
		window:      window,
		limit:       limit,
	}
}

// Allow counts the request when the window still has room.
func (c *SlidingWindowCounter) Allow() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effective() >= float64(c.limit) {
		return false
	}
	c.curr++
	return true
}

// Check reports whether a request would be allowed without counting it.
func (c *SlidingWindowCounter) Check() bool {
	if c == nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.effective() < float64(c.limit)
}

// Consume counts a request after Check passed.
func (c *SlidingWindowCounter) Consume() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.effective() < float64(c.limit) {
		c.curr++
	}
}

// Remaining returns the approximate remaining quota, or -1 when unlimited.
func (c *SlidingWindowCounter) Remaining() int {
	if c == nil {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return max(0, int(float64(c.limit)-c.effective()))
}

// effective rotates expired windows and returns the weighted count.
// Must be called with mu held.
func (c *SlidingWindowCounter) effective() float64 {
	elapsed := c.now().Sub(c.windowStart)
	if elapsed >= c.window {
		passed := int(elapsed / c.window)
		if passed == 1 {
			c.prev = c.curr
		} else {
			c.prev = 0
		}
		c.curr = 0
		c.windowStart = c.windowStart.Add(time.Duration(passed) * c.window)
		elapsed = c.now().Sub(c.windowStart)
	}

	overlap := float64(c.window-elapsed) / float64(c.window)
	overlap = min(1, max(0, overlap))
	return float64(c.curr) + float64(c.prev)*overlap
}
