// Package apiclient provides the shared HTTP client for outbound JSON APIs
// (Google Books, Free Dictionary): a token-bucket rate limit, retries with
// backoff and coalescing of identical in-flight GETs.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/FlockCS/BookClub/internal/config"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/metrics"
)

// maxBodyBytes caps a decoded response body.
const maxBodyBytes = 2 << 20

// Config configures a Client.
type Config struct {
	Service      string        // metric label and error prefix, e.g. "google_books"
	Timeout      time.Duration // per attempt
	MaxRetries   int
	InitialDelay time.Duration
	RateRPS      float64 // <= 0 disables rate limiting
	Burst        int
	UserAgent    string
	Metrics      *metrics.Metrics
	HTTPClient   *http.Client // optional, mainly for tests
}

// Client performs rate-limited, retried JSON GETs against one service.
type Client struct {
	service      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	group        singleflight.Group
	maxRetries   int
	initialDelay time.Duration
	userAgent    string
	metrics      *metrics.Metrics
}

// New creates a Client. Zero values fall back to config defaults.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.ExternalAPIRequest
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = config.ExternalAPIRetryInitial
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "BookClubBot/1.0"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateRPS > 0 {
		burst := max(cfg.Burst, 1)
		limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), burst)
	}

	return &Client{
		service:      cfg.Service,
		httpClient:   httpClient,
		limiter:      limiter,
		maxRetries:   cfg.MaxRetries,
		initialDelay: cfg.InitialDelay,
		userAgent:    cfg.UserAgent,
		metrics:      cfg.Metrics,
	}
}

// Service returns the collaborator name used in metrics and errors.
func (c *Client) Service() string {
	return c.service
}

// GetJSON fetches url and decodes the JSON body into out. Concurrent calls
// for the same url share one request.
//
// A 404 returns a *errors.CollaboratorError wrapping errors.ErrNotFound.
// Other failures return a *errors.CollaboratorError wrapping the cause.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	ch := c.group.DoChan(url, func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.budget())
		defer cancel()
		return c.fetch(fetchCtx, url)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return domerrors.NewCollaboratorError(c.service, 0, ctx.Err())
	}
	if res.Shared {
		c.metrics.RecordSingleflightDedup(c.service)
	}
	if res.Err != nil {
		return res.Err
	}

	body, _ := res.Val.([]byte)
	if err := json.Unmarshal(body, out); err != nil {
		return domerrors.NewCollaboratorError(c.service, http.StatusOK, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// budget is the longest a fetch may run including retries.
func (c *Client) budget() time.Duration {
	attempts := time.Duration(c.maxRetries + 1)
	return attempts*c.httpClient.Timeout + attempts*c.initialDelay*2
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()
	var body []byte
	var status int

	err := RetryWithBackoff(ctx, c.maxRetries, c.initialDelay, func() error {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return Permanent(err)
		}
		c.metrics.RecordRateLimiterWait(c.service, time.Since(waitStart).Seconds())

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			status = 0
			return fmt.Errorf("request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()
		status = resp.StatusCode

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return Permanent(domerrors.ErrNotFound)
		case resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("rate limited: status %d", resp.StatusCode)
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error: status %d", resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return Permanent(fmt.Errorf("client error: status %d", resp.StatusCode))
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	})

	duration := time.Since(start).Seconds()
	if err != nil {
		label := "error"
		switch {
		case errors.Is(err, domerrors.ErrNotFound):
			label = "not_found"
		case errors.Is(err, context.DeadlineExceeded):
			label = "timeout"
		default:
			slog.WarnContext(ctx, "collaborator request failed",
				"service", c.service,
				"status", status,
				"error", err)
		}
		c.metrics.RecordCollaborator(c.service, label, duration)
		return nil, domerrors.NewCollaboratorError(c.service, status, err)
	}

	c.metrics.RecordCollaborator(c.service, "success", duration)
	return body, nil
}
