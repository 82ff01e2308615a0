// Package config provides centralized timeout constants for the application.
//
// Discord requires an initial interaction response within 3 seconds of the
// webhook delivery, after which the interaction token can no longer be used
// for a ChannelMessageWithSource reply. Everything on the request path is
// budgeted to fit inside that window:
//   - Google Books and dictionary lookups: single attempt plus one retry
//   - Scheduled-event REST calls: best-effort with their own short deadline
//   - SQLite: local file, milliseconds in practice
//
// Announcements and discussion threads run after the response through the
// lifecycle bus and use their own, longer timeouts.
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing bounds the handling of one interaction, leaving
	// headroom under Discord's 3s limit for serialization and network.
	WebhookProcessing = 2800 * time.Millisecond

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Interaction payloads are small JSON documents.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	WebhookHTTPWrite = 15 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// Outbound API timeouts
const (
	// ExternalAPIRequest is the per-attempt timeout for Google Books and
	// the dictionary API.
	ExternalAPIRequest = 2 * time.Second

	// ExternalAPIRetryInitial is the first backoff delay between attempts.
	ExternalAPIRetryInitial = 200 * time.Millisecond

	// DiscordEventRequest bounds a best-effort scheduled-event call made
	// while the user waits for the reply.
	DiscordEventRequest = 1500 * time.Millisecond

	// DiscordBackgroundRequest bounds thread and announcement calls made
	// after the reply has been sent.
	DiscordBackgroundRequest = 10 * time.Second

	// AnnouncementGeneration bounds the whole LLM fallback chain.
	AnnouncementGeneration = 20 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour

	// SlowQueryThreshold is the duration above which storage calls are logged at warn.
	SlowQueryThreshold = 100 * time.Millisecond
)

// Background job intervals
const (
	// SelectionCleanupInitialDelay is the delay before the first TTL sweep.
	SelectionCleanupInitialDelay = time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute

	// HistoryExportJob bounds one archive run across all guilds.
	HistoryExportJob = 5 * time.Minute
)

// Health checks
const (
	// ReadinessCheckTimeout bounds the database ping behind /readyz.
	ReadinessCheckTimeout = 2 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	GracefulShutdown = 30 * time.Second

	// LifecycleCloseTimeout is how long in-flight lifecycle subscribers may
	// run once shutdown starts.
	LifecycleCloseTimeout = 15 * time.Second
)
