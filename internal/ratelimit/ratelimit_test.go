package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock is advanced explicitly by tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLimiter_AllowAndRefill(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	l := NewWithClock(2, 1, clock.Now)

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow(), "bucket should be empty")

	clock.Advance(500 * time.Millisecond)
	assert.False(t, l.Allow(), "half a token is not enough")

	clock.Advance(500 * time.Millisecond)
	assert.True(t, l.Allow())

	clock.Advance(time.Hour)
	assert.InDelta(t, 2, l.Available(), 0.0001, "refill is capped at capacity")
	assert.True(t, l.IsFull())
}

func TestLimiter_CheckDoesNotConsume(t *testing.T) {
	t.Parallel()

	l := NewWithClock(1, 0.001, newManualClock().Now)
	assert.True(t, l.Check())
	assert.True(t, l.Check())
	l.Consume()
	assert.False(t, l.Check())
	l.Consume() // no token left: no-op
	assert.InDelta(t, 0, l.Available(), 0.0001)
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	l := New(1, 0.01) // next token in 100s
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestLimiter_WaitAcquiresAfterRefill(t *testing.T) {
	t.Parallel()

	l := New(1, 50) // 20ms per token
	require.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	start := time.Now()
	require.NoError(t, l.Wait(ctx))
	assert.Less(t, time.Since(start), time.Second)
}

func TestSlidingWindowCounter(t *testing.T) {
	t.Parallel()

	clock := newManualClock()
	c := NewSlidingWindowCounter(3, time.Hour, clock.Now)

	assert.True(t, c.Allow())
	assert.True(t, c.Allow())
	assert.True(t, c.Allow())
	assert.False(t, c.Allow())
	assert.Equal(t, 0, c.Remaining())

	// Half way into the next window half of the previous count still applies.
	clock.Advance(90 * time.Minute)
	assert.Equal(t, 1, c.Remaining())
	assert.True(t, c.Check())

	// Two windows later nothing from the first window remains.
	clock.Advance(2 * time.Hour)
	assert.Equal(t, 3, c.Remaining())
}

func TestSlidingWindowCounter_Disabled(t *testing.T) {
	t.Parallel()

	var c *SlidingWindowCounter = NewSlidingWindowCounter(0, time.Hour, nil)
	assert.Nil(t, c)
	assert.True(t, c.Allow())
	assert.True(t, c.Check())
	assert.Equal(t, -1, c.Remaining())
	c.Consume()
}
