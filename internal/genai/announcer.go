package genai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/ratelimit"
)

// Announcer produces announcement text, walking the writer chain and
// falling back to the template. It never fails.
type Announcer struct {
	writers []Writer
	retry   RetryConfig
	metrics *metrics.Metrics
	limiter *ratelimit.KeyedLimiter
	timeout time.Duration
}

// newAnnouncer assembles an Announcer from already-built writers.
func newAnnouncer(writers []Writer, retry RetryConfig, m *metrics.Metrics, limiter *ratelimit.KeyedLimiter) *Announcer {
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Announcer{
		writers: writers,
		retry:   retry,
		metrics: m,
		limiter: limiter,
		timeout: config.AnnouncementGeneration,
	}
}

// Enabled reports whether any model writer is configured.
func (an *Announcer) Enabled() bool {
	return an != nil && len(an.writers) > 0
}

// Announce returns announcement text for guildID and the provider that wrote it.
// Guilds over their generation quota get the template.
func (an *Announcer) Announce(ctx context.Context, guildID string, a Announcement) (string, Provider) {
	if !an.Enabled() {
		an.record(ProviderTemplate, "disabled")
		return TemplateAnnouncement(a), ProviderTemplate
	}
	if an.limiter != nil && !an.limiter.Allow(guildID) {
		slog.InfoContext(ctx, "announcement quota exhausted, using template", "guild_id", guildID)
		an.record(ProviderTemplate, "quota")
		return TemplateAnnouncement(a), ProviderTemplate
	}

	ctx, cancel := context.WithTimeout(ctx, an.timeout)
	defer cancel()

	for i, w := range an.writers {
		text, err := writeWithRetry(ctx, an.retry, w, a)
		an.record(w.Provider(), statusLabel(err))
		if err == nil {
			if i > 0 {
				slog.InfoContext(ctx, "announcement written by fallback",
					"provider", w.Provider(),
					"model", w.Model(),
					"position", i)
			}
			return text, w.Provider()
		}

		slog.WarnContext(ctx, "announcement writer failed",
			"provider", w.Provider(),
			"model", w.Model(),
			"action", ClassifyError(err).String(),
			"error", err)

		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			break
		}
	}

	an.record(ProviderTemplate, "fallback")
	return TemplateAnnouncement(a), ProviderTemplate
}

func (an *Announcer) record(p Provider, status string) {
	if an == nil {
		return
	}
	an.metrics.RecordAnnouncement(p.String(), status)
}

// Close releases all writers.
func (an *Announcer) Close() error {
	if an == nil {
		return nil
	}
	var errs []error
	for _, w := range an.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
