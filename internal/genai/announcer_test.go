package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/ratelimit"
)

// stubWriter returns errs in order, then text.
type stubWriter struct {
	mu       sync.Mutex
	provider Provider
	errs     []error
	text     string
	calls    int
}

func (s *stubWriter) Write(context.Context, Announcement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.text, nil
}

func (s *stubWriter) Provider() Provider {
	if s.provider == "" {
		return ProviderGemini
	}
	return s.provider
}
func (s *stubWriter) Model() string { return "stub" }
func (s *stubWriter) Close() error  { return nil }

var dune = Announcement{Kind: KindScheduled, Title: "Dune", Date: "03-15-2030", Assignment: "Ch 1-5"}

func TestAnnouncer_PrimarySucceeds(t *testing.T) {
	primary := &stubWriter{text: "primary text"}
	secondary := &stubWriter{provider: ProviderHuggingFace, text: "secondary text"}
	an := newAnnouncer([]Writer{primary, secondary}, fastRetry(), nil, nil)

	text, provider := an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, "primary text", text)
	assert.Equal(t, ProviderGemini, provider)
	assert.Zero(t, secondary.calls)
}

func TestAnnouncer_FallsBackToNextWriter(t *testing.T) {
	primary := &stubWriter{errs: []error{WrapError(errors.New("bad key"), ProviderGemini, 401)}}
	secondary := &stubWriter{provider: ProviderHuggingFace, text: "secondary text"}
	m := metrics.New(prometheus.NewRegistry())
	an := newAnnouncer([]Writer{primary, secondary}, fastRetry(), m, nil)

	text, provider := an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, "secondary text", text)
	assert.Equal(t, ProviderHuggingFace, provider)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnnouncementsTotal.WithLabelValues("gemini", "auth_error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AnnouncementsTotal.WithLabelValues("huggingface", "success")), 0)
}

func TestAnnouncer_TemplateWhenAllFail(t *testing.T) {
	fail := func() *stubWriter {
		return &stubWriter{errs: []error{WrapError(ErrEmptyOutput, ProviderGemini, 0)}}
	}
	an := newAnnouncer([]Writer{fail(), fail()}, fastRetry(), nil, nil)

	text, provider := an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, ProviderTemplate, provider)
	assert.Equal(t, TemplateAnnouncement(dune), text)
}

func TestAnnouncer_DisabledUsesTemplate(t *testing.T) {
	an := newAnnouncer(nil, RetryConfig{}, nil, nil)
	assert.False(t, an.Enabled())

	text, provider := an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, ProviderTemplate, provider)
	assert.Equal(t, TemplateAnnouncement(dune), text)

	var nilAnnouncer *Announcer
	_, provider = nilAnnouncer.Announce(context.Background(), "g1", dune)
	assert.Equal(t, ProviderTemplate, provider)
	assert.NoError(t, nilAnnouncer.Close())
}

func TestAnnouncer_GuildQuota(t *testing.T) {
	limiter := ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
		Name:       "announcement",
		Burst:      10,
		RefillRate: 1,
		DailyLimit: 1,
	})
	defer limiter.Stop()

	w := &stubWriter{text: "generated"}
	an := newAnnouncer([]Writer{w}, fastRetry(), nil, limiter)

	_, provider := an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, ProviderGemini, provider)

	_, provider = an.Announce(context.Background(), "g1", dune)
	assert.Equal(t, ProviderTemplate, provider, "second announcement in a day uses the template")

	_, provider = an.Announce(context.Background(), "g2", dune)
	assert.Equal(t, ProviderGemini, provider, "quota is per guild")
	assert.Equal(t, 2, w.calls)
}

func TestOpenAIWriter_ChatCompletion(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf-token", r.Header.Get("Authorization"))

		var body struct {
			Model string `json:"model"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1", "object": "chat.completion", "created": 1, "model": "google/gemma-2-2b-it",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "  Dune starts on 03-15-2030! 📚  "}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
		}`))
	}))
	defer srv.Close()

	w := newOpenAIWriter(ProviderHuggingFace, "hf-token", srv.URL+"/", "google/gemma-2-2b-it")
	require.NotNil(t, w)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	text, err := w.Write(ctx, dune)
	require.NoError(t, err)
	assert.Equal(t, "Dune starts on 03-15-2030! 📚", text)
	assert.Equal(t, "google/gemma-2-2b-it", gotModel)
}

func TestOpenAIWriter_StatusErrorIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "model loading", "type": "server_error"}}`))
	}))
	defer srv.Close()

	w := newOpenAIWriter(ProviderHuggingFace, "hf-token", srv.URL+"/", "m")
	_, err := w.Write(context.Background(), dune)
	require.Error(t, err)

	var llmErr *LLMError
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, http.StatusServiceUnavailable, llmErr.StatusCode)
	assert.Equal(t, ActionRetry, ClassifyError(err))
}

func TestNewOpenAIWriter_NoToken(t *testing.T) {
	assert.Nil(t, newOpenAIWriter(ProviderHuggingFace, "", "", ""))
}

func TestNewAnnouncer_NoCredentials(t *testing.T) {
	an, err := NewAnnouncer(context.Background(), Config{}, nil, nil)
	require.NoError(t, err)
	assert.False(t, an.Enabled())
}
