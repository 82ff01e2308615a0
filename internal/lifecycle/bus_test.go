package lifecycle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlockCS/BookClub/internal/ctxutil"
	"github.com/FlockCS/BookClub/internal/metrics"
)

func testBus(t *testing.T, m *metrics.Metrics) *Bus {
	t.Helper()
	bus, err := NewBus(BusConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		CloseTimeout:    time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	require.NoError(t, err)
	return bus
}

func start(t *testing.T, bus *Bus) {
	t.Helper()
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { _ = bus.Close() })
}

func TestBus_FanOut(t *testing.T) {
	bus := testBus(t, nil)

	var mu sync.Mutex
	got := map[string][]Event{}
	var wg sync.WaitGroup
	wg.Add(2)
	for _, name := range []string{"a", "b"} {
		bus.Subscribe(name, func(_ context.Context, e Event) error {
			mu.Lock()
			got[name] = append(got[name], e)
			mu.Unlock()
			wg.Done()
			return nil
		})
	}
	start(t, bus)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: BookScheduled, GuildID: "g1", Title: "Dune"}))
	waitTimeout(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got["a"], 1)
	require.Len(t, got["b"], 1)
	assert.Equal(t, "Dune", got["a"][0].Title)
	assert.Equal(t, BookScheduled, got["b"][0].Type)
}

func TestBus_CarriesTracingContext(t *testing.T) {
	bus := testBus(t, nil)

	ids := make(chan string, 1)
	bus.Subscribe("trace", func(ctx context.Context, _ Event) error {
		ids <- ctxutil.GetGuildID(ctx)
		return nil
	})
	start(t, bus)

	ctx, cancel := context.WithCancel(ctxutil.WithGuildID(context.Background(), "g42"))
	require.NoError(t, bus.Publish(ctx, Event{Type: BookFinished}))
	cancel()

	select {
	case id := <-ids:
		assert.Equal(t, "g42", id)
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}
}

func TestBus_RetriesThenAbsorbsFailure(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	bus := testBus(t, m)

	var calls atomic.Int32
	done := make(chan struct{})
	bus.Subscribe("flaky", func(context.Context, Event) error {
		if calls.Add(1) == 3 {
			close(done)
		}
		return errors.New("discord down")
	})
	start(t, bus)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: BookRescheduled}))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("handler not retried")
	}

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.LifecycleEventsTotal.WithLabelValues("book_rescheduled", "failed")) == 1
	}, 5*time.Second, 10*time.Millisecond)
	// Absorbed failures are not redelivered.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(m.LifecycleEventsTotal.WithLabelValues("book_rescheduled", "published")), 0)
}

func TestBus_RecoversPanics(t *testing.T) {
	bus := testBus(t, nil)

	var calls atomic.Int32
	ok := make(chan struct{})
	bus.Subscribe("panicky", func(context.Context, Event) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		close(ok)
		return nil
	})
	start(t, bus)

	require.NoError(t, bus.Publish(context.Background(), Event{Type: BookDeleted}))
	select {
	case <-ok:
	case <-time.After(5 * time.Second):
		t.Fatal("panic was not recovered and retried")
	}
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), Event{}))
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for subscribers")
	}
}
