package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/metrics"
)

type payload struct {
	Word string `json:"word"`
}

func newTestClient(m *metrics.Metrics, retries int) *Client {
	return New(Config{
		Service:      "test",
		Timeout:      time.Second,
		MaxRetries:   retries,
		InitialDelay: time.Millisecond,
		Metrics:      m,
	})
}

func TestGetJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"word":"hello"}`))
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	c := newTestClient(m, 1)

	var out payload
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "hello", out.Word)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CollaboratorRequestsTotal.WithLabelValues("test", "success")), 0)
}

func TestGetJSON_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := metrics.New(prometheus.NewRegistry())
	c := newTestClient(m, 3)

	var out payload
	err := c.GetJSON(context.Background(), srv.URL, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrNotFound)

	var collab *domerrors.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, "test", collab.Service)
	assert.Equal(t, http.StatusNotFound, collab.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(m.CollaboratorRequestsTotal.WithLabelValues("test", "not_found")), 0)
}

func TestGetJSON_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"word":"retry"}`))
	}))
	defer srv.Close()

	c := newTestClient(nil, 1)
	var out payload
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, "retry", out.Word)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetJSON_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(nil, 3)
	err := c.GetJSON(context.Background(), srv.URL, &payload{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domerrors.ErrNotFound)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := newTestClient(nil, 0)
	err := c.GetJSON(context.Background(), srv.URL, &payload{})
	var collab *domerrors.CollaboratorError
	require.ErrorAs(t, err, &collab)
	assert.Equal(t, http.StatusOK, collab.StatusCode)
}

func TestGetJSON_CoalescesIdenticalRequests(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"word":"shared"}`))
	}))
	defer srv.Close()

	c := newTestClient(nil, 0)

	const n = 5
	var wg sync.WaitGroup
	results := make([]payload, n)
	errs := make([]error, n)
	for i := range n {
		wg.Go(func() {
			errs[i] = c.GetJSON(context.Background(), srv.URL, &results[i])
		})
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", results[i].Word)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetJSON_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(nil, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.GetJSON(ctx, srv.URL, &payload{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{Service: "svc", MaxRetries: -1})
	assert.Equal(t, "svc", c.Service())
	assert.Equal(t, 0, c.maxRetries)
	assert.Equal(t, "BookClubBot/1.0", c.userAgent)
	assert.Equal(t, rate.Inf, c.limiter.Limit())
}
