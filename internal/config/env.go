// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Discord (Required)
	EnvDiscordPublicKey   = "BOOKCLUB_DISCORD_PUBLIC_KEY"
	EnvModeratorRoleID    = "BOOKCLUB_MODERATOR_ROLE_ID"
	EnvDiscordBotToken    = "BOOKCLUB_DISCORD_BOT_TOKEN"
	EnvDiscordAppID       = "BOOKCLUB_DISCORD_APPLICATION_ID"
	EnvDiscordDevGuildID  = "BOOKCLUB_DISCORD_DEV_GUILD_ID"
	EnvCommandsManifest   = "BOOKCLUB_COMMANDS_FILE"
	EnvProjectURL         = "BOOKCLUB_PROJECT_URL"
	EnvAnnounceChannelID  = "BOOKCLUB_ANNOUNCE_CHANNEL_ID"
	EnvThreadChannelID    = "BOOKCLUB_THREAD_CHANNEL_ID"
	EnvEventVoiceChannel  = "BOOKCLUB_EVENT_VOICE_CHANNEL_ID"
	EnvEventLocation      = "BOOKCLUB_EVENT_LOCATION"
	EnvEventDuration      = "BOOKCLUB_EVENT_DURATION"
	EnvDiscussionTimezone = "BOOKCLUB_TIMEZONE"
	EnvDiscussionHour     = "BOOKCLUB_DISCUSSION_HOUR"

	// Server
	EnvPort            = "BOOKCLUB_PORT"
	EnvLogLevel        = "BOOKCLUB_LOG_LEVEL"
	EnvShutdownTimeout = "BOOKCLUB_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir         = "BOOKCLUB_DATA_DIR"
	EnvSelectionTTL    = "BOOKCLUB_SELECTION_TTL"
	EnvPendingTTL      = "BOOKCLUB_PENDING_TTL"
	EnvCleanupInterval = "BOOKCLUB_CLEANUP_INTERVAL"

	// Outbound APIs
	EnvGoogleBooksAPIKey  = "BOOKCLUB_GOOGLE_BOOKS_API_KEY"
	EnvGoogleBooksBaseURL = "BOOKCLUB_GOOGLE_BOOKS_BASE_URL"
	EnvDictionaryBaseURL  = "BOOKCLUB_DICTIONARY_BASE_URL"
	EnvAPITimeout         = "BOOKCLUB_API_TIMEOUT"
	EnvAPIMaxRetries      = "BOOKCLUB_API_MAX_RETRIES"
	EnvAPIRateRPS         = "BOOKCLUB_API_RATE_RPS"

	// Rate Limits
	EnvUserRateBurst  = "BOOKCLUB_USER_RATE_BURST"
	EnvUserRateRefill = "BOOKCLUB_USER_RATE_REFILL"

	// LLM Feature
	EnvGeminiAPIKey         = "BOOKCLUB_GEMINI_API_KEY"
	EnvGeminiModels         = "BOOKCLUB_GEMINI_MODELS"
	EnvHuggingFaceToken     = "BOOKCLUB_HF_TOKEN"
	EnvHuggingFaceBaseURL   = "BOOKCLUB_HF_BASE_URL"
	EnvHuggingFaceModels    = "BOOKCLUB_HF_MODELS"
	EnvAnnouncementsEnabled = "BOOKCLUB_ANNOUNCEMENTS_ENABLED"

	// R2 History Export Feature
	EnvR2Enabled         = "BOOKCLUB_R2_ENABLED"
	EnvR2AccountID       = "BOOKCLUB_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "BOOKCLUB_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "BOOKCLUB_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "BOOKCLUB_R2_BUCKET_NAME"
	EnvR2Endpoint        = "BOOKCLUB_R2_ENDPOINT"
	EnvR2HistoryPrefix   = "BOOKCLUB_R2_HISTORY_PREFIX"
	EnvR2LockKey         = "BOOKCLUB_R2_LOCK_KEY"
	EnvR2LockTTL         = "BOOKCLUB_R2_LOCK_TTL"
	EnvR2ExportInterval  = "BOOKCLUB_R2_EXPORT_INTERVAL"

	// Sentry Feature
	EnvSentryEnabled          = "BOOKCLUB_SENTRY_ENABLED"
	EnvSentryDSN              = "BOOKCLUB_SENTRY_DSN"
	EnvSentryEnvironment      = "BOOKCLUB_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "BOOKCLUB_SENTRY_RELEASE"
	EnvSentrySampleRate       = "BOOKCLUB_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "BOOKCLUB_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled  = "BOOKCLUB_BETTERSTACK_ENABLED"
	EnvBetterStackToken    = "BOOKCLUB_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "BOOKCLUB_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "BOOKCLUB_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "BOOKCLUB_METRICS_USERNAME"
	EnvMetricsPassword    = "BOOKCLUB_METRICS_PASSWORD"
)
