package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct{ err error }

func (f failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (f failingHandler) Handle(context.Context, slog.Record) error { return f.err }
func (f failingHandler) WithAttrs([]slog.Attr) slog.Handler       { return f }
func (f failingHandler) WithGroup(string) slog.Handler            { return f }

// syncBuffer is a bytes.Buffer safe for the async worker goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestMultiHandler_FanOut(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mh := NewMultiHandler(nil,
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	require.Len(t, mh.handlers, 2)

	log := slog.New(mh).With("module", "test")
	log.Info("info only")
	log.Error("both")

	assert.Equal(t, 2, strings.Count(a.String(), "\n"))
	assert.Equal(t, 1, strings.Count(b.String(), "\n"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(b.Bytes(), &entry))
	assert.Equal(t, "test", entry["module"])
	assert.Equal(t, "both", entry["msg"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	mh := NewMultiHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, mh.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, mh.Enabled(context.Background(), slog.LevelError))
	assert.False(t, NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_JoinsErrors(t *testing.T) {
	t.Parallel()

	errA := errors.New("a")
	var buf bytes.Buffer
	mh := NewMultiHandler(failingHandler{err: errA}, slog.NewJSONHandler(&buf, nil))

	err := mh.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "m", 0))
	assert.ErrorIs(t, err, errA)
	assert.Contains(t, buf.String(), `"msg":"m"`, "healthy handler still receives the record")
}

func TestAsyncHandler_DeliversOnShutdown(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	ah := NewAsyncHandler(slog.NewJSONHandler(out, nil), AsyncOptions{BufferSize: 16})
	log := slog.New(ah).With("module", "async")

	ctx, cancel := context.WithCancel(context.Background())
	log.InfoContext(ctx, "first")
	cancel()
	log.InfoContext(ctx, "second")

	require.NoError(t, ah.Shutdown(context.Background()))
	got := out.String()
	assert.Contains(t, got, `"msg":"first"`)
	assert.Contains(t, got, `"msg":"second"`)
	assert.Contains(t, got, `"module":"async"`)

	// Records after shutdown are dropped, and a second Shutdown is a no-op.
	log.Info("late")
	assert.NotContains(t, out.String(), "late")
	assert.Equal(t, uint64(1), ah.Dropped())
	assert.NoError(t, ah.Shutdown(context.Background()))
}

func TestAsyncHandler_SkipsDisabledLevels(t *testing.T) {
	t.Parallel()

	out := &syncBuffer{}
	ah := NewAsyncHandler(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelWarn}), AsyncOptions{})
	slog.New(ah).Info("ignored")
	require.NoError(t, ah.Shutdown(context.Background()))
	assert.Empty(t, out.String())
	assert.Zero(t, ah.Dropped())
}

func TestAsyncHandler_NilShutdown(t *testing.T) {
	t.Parallel()

	var ah *AsyncHandler
	assert.NoError(t, ah.Shutdown(context.Background()))
}
