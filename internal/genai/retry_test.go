package genai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	assert.Zero(t, CalculateBackoff(0, time.Second, 10*time.Second))

	for attempt := 1; attempt <= 6; attempt++ {
		d := CalculateBackoff(attempt, 100*time.Millisecond, 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 400*time.Millisecond, "attempt %d must respect max delay", attempt)
	}
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestHasSufficientBudget(t *testing.T) {
	assert.True(t, HasSufficientBudget(context.Background(), time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.False(t, HasSufficientBudget(ctx, time.Second))
	assert.True(t, HasSufficientBudget(ctx, time.Millisecond))
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestWriteWithRetry_RetriesTransient(t *testing.T) {
	w := &stubWriter{errs: []error{
		WrapError(errors.New("busy"), ProviderGemini, 503),
		WrapError(errors.New("busy"), ProviderGemini, 429),
	}, text: "hello club"}

	text, err := writeWithRetry(context.Background(), fastRetry(), w, Announcement{Title: "Dune"})
	require.NoError(t, err)
	assert.Equal(t, "hello club", text)
	assert.Equal(t, 3, w.calls)
}

func TestWriteWithRetry_StopsOnFallbackError(t *testing.T) {
	w := &stubWriter{errs: []error{WrapError(errors.New("bad key"), ProviderGemini, 401)}, text: "unused"}

	_, err := writeWithRetry(context.Background(), fastRetry(), w, Announcement{})
	require.Error(t, err)
	assert.Equal(t, 1, w.calls)
}

func TestWriteWithRetry_ExhaustsAttempts(t *testing.T) {
	busy := WrapError(errors.New("busy"), ProviderGemini, 500)
	w := &stubWriter{errs: []error{busy, busy, busy, busy}}

	_, err := writeWithRetry(context.Background(), fastRetry(), w, Announcement{})
	require.Error(t, err)
	assert.Equal(t, 3, w.calls)
}
