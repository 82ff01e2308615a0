// Package config provides application configuration management.
// It loads settings from a .env file and BOOKCLUB_* environment variables,
// applies defaults, and validates them for the mode the binary runs in.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // discussion timezone must resolve in minimal containers

	"github.com/joho/godotenv"
)

// ValidationMode selects which settings are required.
type ValidationMode int

const (
	// ServerMode requires everything the interaction webhook needs.
	ServerMode ValidationMode = iota
	// RegisterMode requires only the bot credentials used to register commands.
	RegisterMode
)

// Defaults for optional settings.
const (
	DefaultTimezone       = "America/New_York"
	DefaultDiscussionHour = 19
	DefaultProjectURL     = "https://github.com/FlockCS/BookClub"
	DefaultPort           = "10000"
)

// Config holds all application configuration
type Config struct {
	// Discord
	DiscordPublicKey  string // hex-encoded ed25519 application public key
	DiscordBotToken   string // bot token for REST calls (events, threads, messages)
	DiscordAppID      string
	DiscordDevGuildID string // register commands to one guild instead of globally
	ModeratorRoleID   string // role allowed to delete and finish the current book
	CommandsFile      string
	ProjectURL        string

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir         string
	SelectionTTL    time.Duration // lifetime of a guild's search results
	PendingTTL      time.Duration // lifetime of a user's picked-but-unscheduled book
	CleanupInterval time.Duration // how often expired selections are swept

	Discussion DiscussionConfig
	API        APIConfig
	RateLimit  RateLimitConfig
	LLM        LLMConfig
	R2         R2Config
	Sentry     SentryConfig

	// Better Stack
	BetterStackEnabled  bool
	BetterStackToken    string
	BetterStackEndpoint string

	// Metrics Authentication
	MetricsAuthEnabled bool
	MetricsUsername    string
	MetricsPassword    string
}

// DiscussionConfig controls scheduled events and follow-up posts.
type DiscussionConfig struct {
	Timezone          string
	Hour              int
	EventDuration     time.Duration
	EventLocation     string // external location shown on the event
	VoiceChannelID    string // when set, events are voice events in this channel
	ThreadChannelID   string // when set, a discussion thread is opened on scheduling
	AnnounceChannelID string // when set, lifecycle announcements are posted here
}

// APIConfig configures the outbound Google Books and dictionary clients.
type APIConfig struct {
	GoogleBooksAPIKey  string
	GoogleBooksBaseURL string
	DictionaryBaseURL  string
	Timeout            time.Duration
	MaxRetries         int
	RateRPS            float64
}

// RateLimitConfig configures per-user interaction throttling.
type RateLimitConfig struct {
	UserBurst      float64
	UserRefillRate float64 // tokens per second
}

// LLMConfig configures announcement generation.
type LLMConfig struct {
	AnnouncementsEnabled bool
	GeminiAPIKey         string
	GeminiModels         []string
	HuggingFaceToken     string
	HuggingFaceBaseURL   string
	HuggingFaceModels    []string
}

// R2Config configures history export to Cloudflare R2.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	HistoryPrefix   string
	LockKey         string
	LockTTL         time.Duration
	ExportInterval  time.Duration
}

// SentryConfig configures error reporting.
type SentryConfig struct {
	Enabled          bool
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// Load reads configuration for the webhook server.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from the environment and validates it for mode.
// It attempts to load a .env file first.
func LoadForMode(mode ValidationMode) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DiscordPublicKey:  getEnv(EnvDiscordPublicKey, ""),
		DiscordBotToken:   getEnv(EnvDiscordBotToken, ""),
		DiscordAppID:      getEnv(EnvDiscordAppID, ""),
		DiscordDevGuildID: getEnv(EnvDiscordDevGuildID, ""),
		ModeratorRoleID:   getEnv(EnvModeratorRoleID, ""),
		CommandsFile:      getEnv(EnvCommandsManifest, "commands.yaml"),
		ProjectURL:        getEnv(EnvProjectURL, DefaultProjectURL),

		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:         getEnv(EnvDataDir, getDefaultDataDir()),
		SelectionTTL:    getDurationEnv(EnvSelectionTTL, 15*time.Minute),
		PendingTTL:      getDurationEnv(EnvPendingTTL, 24*time.Hour),
		CleanupInterval: getDurationEnv(EnvCleanupInterval, time.Hour),

		Discussion: DiscussionConfig{
			Timezone:          getEnv(EnvDiscussionTimezone, DefaultTimezone),
			Hour:              getIntEnv(EnvDiscussionHour, DefaultDiscussionHour),
			EventDuration:     getDurationEnv(EnvEventDuration, time.Hour),
			EventLocation:     getEnv(EnvEventLocation, "Book Club"),
			VoiceChannelID:    getEnv(EnvEventVoiceChannel, ""),
			ThreadChannelID:   getEnv(EnvThreadChannelID, ""),
			AnnounceChannelID: getEnv(EnvAnnounceChannelID, ""),
		},

		API: APIConfig{
			GoogleBooksAPIKey:  getEnv(EnvGoogleBooksAPIKey, ""),
			GoogleBooksBaseURL: getEnv(EnvGoogleBooksBaseURL, "https://www.googleapis.com/books/v1"),
			DictionaryBaseURL:  getEnv(EnvDictionaryBaseURL, "https://api.dictionaryapi.dev/api/v2"),
			Timeout:            getDurationEnv(EnvAPITimeout, ExternalAPIRequest),
			MaxRetries:         getIntEnv(EnvAPIMaxRetries, 1),
			RateRPS:            getFloatEnv(EnvAPIRateRPS, 5.0),
		},

		RateLimit: RateLimitConfig{
			UserBurst:      getFloatEnv(EnvUserRateBurst, 10.0),
			UserRefillRate: getFloatEnv(EnvUserRateRefill, 0.5), // 1 per 2s
		},

		LLM: LLMConfig{
			AnnouncementsEnabled: getBoolEnv(EnvAnnouncementsEnabled, true),
			GeminiAPIKey:         getEnv(EnvGeminiAPIKey, ""),
			GeminiModels:         getListEnv(EnvGeminiModels, []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}),
			HuggingFaceToken:     getEnv(EnvHuggingFaceToken, ""),
			HuggingFaceBaseURL:   getEnv(EnvHuggingFaceBaseURL, "https://router.huggingface.co/v1/"),
			HuggingFaceModels:    getListEnv(EnvHuggingFaceModels, []string{"google/gemma-2-2b-it"}),
		},

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			Endpoint:        getEnv(EnvR2Endpoint, ""),
			HistoryPrefix:   getEnv(EnvR2HistoryPrefix, "history"),
			LockKey:         getEnv(EnvR2LockKey, "locks/history-export.lock"),
			LockTTL:         getDurationEnv(EnvR2LockTTL, 10*time.Minute),
			ExportInterval:  getDurationEnv(EnvR2ExportInterval, 24*time.Hour),
		},

		Sentry: SentryConfig{
			Enabled:          getBoolEnv(EnvSentryEnabled, false),
			DSN:              getEnv(EnvSentryDSN, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0.0),
		},

		BetterStackEnabled:  getBoolEnv(EnvBetterStackEnabled, false),
		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		MetricsAuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
		MetricsUsername:    getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:    getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for server mode.
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == RegisterMode {
		if c.DiscordBotToken == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvDiscordBotToken))
		}
		if c.DiscordAppID == "" {
			errs = append(errs, fmt.Errorf("%s is required", EnvDiscordAppID))
		}
		return errors.Join(errs...)
	}

	if c.DiscordPublicKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDiscordPublicKey))
	}
	if c.ModeratorRoleID == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvModeratorRoleID))
	}
	if c.Port == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvPort))
	}
	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvDataDir))
	}
	if c.SelectionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSelectionTTL, c.SelectionTTL))
	}
	if c.PendingTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvPendingTTL, c.PendingTTL))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvCleanupInterval, c.CleanupInterval))
	}
	if _, err := time.LoadLocation(c.Discussion.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvDiscussionTimezone, err))
	}
	if c.Discussion.Hour < 0 || c.Discussion.Hour > 23 {
		errs = append(errs, fmt.Errorf("%s must be between 0 and 23, got %d", EnvDiscussionHour, c.Discussion.Hour))
	}
	if c.Discussion.EventDuration <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvEventDuration, c.Discussion.EventDuration))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvAPITimeout, c.API.Timeout))
	}
	if c.API.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvAPIMaxRetries, c.API.MaxRetries))
	}
	if c.RateLimit.UserBurst <= 0 || c.RateLimit.UserRefillRate <= 0 {
		errs = append(errs, fmt.Errorf("%s and %s must be positive", EnvUserRateBurst, EnvUserRateRefill))
	}
	if c.R2.Enabled {
		if c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, fmt.Errorf("%s, %s and %s are required when R2 is enabled",
				EnvR2AccessKeyID, EnvR2SecretAccessKey, EnvR2BucketName))
		}
		if c.R2.AccountID == "" && c.R2.Endpoint == "" {
			errs = append(errs, fmt.Errorf("%s or %s is required when R2 is enabled", EnvR2AccountID, EnvR2Endpoint))
		}
	}
	if c.Sentry.Enabled && c.Sentry.DSN == "" {
		errs = append(errs, fmt.Errorf("%s is required when Sentry is enabled", EnvSentryDSN))
	}
	if c.BetterStackEnabled && c.BetterStackToken == "" {
		errs = append(errs, fmt.Errorf("%s is required when Better Stack is enabled", EnvBetterStackToken))
	}
	if c.MetricsAuthEnabled && c.MetricsPassword == "" {
		errs = append(errs, fmt.Errorf("%s is required when metrics auth is enabled", EnvMetricsPassword))
	}

	return errors.Join(errs...)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for item := range strings.SplitSeq(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "bookclub.db")
}

// Location returns the discussion timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Discussion.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.LLM.GeminiAPIKey != "" || c.LLM.HuggingFaceToken != ""
}

// R2Endpoint returns the S3 endpoint for the configured R2 account.
func (c *Config) R2Endpoint() string {
	if c.R2.Endpoint != "" {
		return c.R2.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2.AccountID)
}
