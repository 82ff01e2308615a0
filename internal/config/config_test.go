package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvDiscordPublicKey, "abcdef")
	t.Setenv(EnvModeratorRoleID, "role-1")
	t.Setenv(EnvDataDir, t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abcdef", cfg.DiscordPublicKey)
	assert.Equal(t, "role-1", cfg.ModeratorRoleID)
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SelectionTTL)
	assert.Equal(t, 24*time.Hour, cfg.PendingTTL)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, DefaultTimezone, cfg.Discussion.Timezone)
	assert.Equal(t, 19, cfg.Discussion.Hour)
	assert.Equal(t, "https://router.huggingface.co/v1/", cfg.LLM.HuggingFaceBaseURL)
	assert.Equal(t, []string{"google/gemma-2-2b-it"}, cfg.LLM.HuggingFaceModels)
	assert.False(t, cfg.R2.Enabled)
	assert.True(t, strings.HasSuffix(cfg.SQLitePath(), "bookclub.db"))
	assert.Equal(t, "America/New_York", cfg.Location().String())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvSelectionTTL, "5m")
	t.Setenv(EnvPendingTTL, "2h")
	t.Setenv(EnvDiscussionHour, "18")
	t.Setenv(EnvGeminiModels, " gemini-a , ,gemini-b ")
	t.Setenv(EnvSentryEnabled, "true")
	t.Setenv(EnvSentryDSN, "https://key@sentry.example/1")
	t.Setenv(EnvAPIMaxRetries, "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.SelectionTTL)
	assert.Equal(t, 2*time.Hour, cfg.PendingTTL)
	assert.Equal(t, 18, cfg.Discussion.Hour)
	assert.Equal(t, []string{"gemini-a", "gemini-b"}, cfg.LLM.GeminiModels)
	assert.True(t, cfg.Sentry.Enabled)
	assert.Equal(t, 1, cfg.API.MaxRetries, "unparsable values fall back to the default")
}

func TestLoadForMode(t *testing.T) {
	tests := []struct {
		name        string
		mode        ValidationMode
		env         map[string]string
		wantErr     bool
		errContains []string
	}{
		{
			name:        "server mode - missing discord settings",
			mode:        ServerMode,
			env:         map[string]string{EnvDataDir: "/tmp"},
			wantErr:     true,
			errContains: []string{EnvDiscordPublicKey, EnvModeratorRoleID},
		},
		{
			name: "register mode - bot credentials only",
			mode: RegisterMode,
			env:  map[string]string{EnvDiscordBotToken: "tok", EnvDiscordAppID: "app"},
		},
		{
			name:        "register mode - missing token",
			mode:        RegisterMode,
			env:         map[string]string{EnvDiscordAppID: "app"},
			wantErr:     true,
			errContains: []string{EnvDiscordBotToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadForMode(tt.mode)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, s := range tt.errContains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		DiscordPublicKey: "abc",
		ModeratorRoleID:  "role",
		Port:             "10000",
		DataDir:          "/data",
		SelectionTTL:     15 * time.Minute,
		PendingTTL:       24 * time.Hour,
		CleanupInterval:  time.Hour,
		Discussion: DiscussionConfig{
			Timezone:      DefaultTimezone,
			Hour:          19,
			EventDuration: time.Hour,
		},
		API:       APIConfig{Timeout: time.Second, MaxRetries: 1},
		RateLimit: RateLimitConfig{UserBurst: 5, UserRefillRate: 1},
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad timezone", func(c *Config) { c.Discussion.Timezone = "Mars/Olympus" }, EnvDiscussionTimezone},
		{"hour out of range", func(c *Config) { c.Discussion.Hour = 24 }, EnvDiscussionHour},
		{"zero selection ttl", func(c *Config) { c.SelectionTTL = 0 }, EnvSelectionTTL},
		{"negative retries", func(c *Config) { c.API.MaxRetries = -1 }, EnvAPIMaxRetries},
		{"r2 without credentials", func(c *Config) { c.R2.Enabled = true }, EnvR2AccessKeyID},
		{"sentry without dsn", func(c *Config) { c.Sentry.Enabled = true }, EnvSentryDSN},
		{"better stack without token", func(c *Config) { c.BetterStackEnabled = true }, EnvBetterStackToken},
		{"metrics auth without password", func(c *Config) { c.MetricsAuthEnabled = true }, EnvMetricsPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	assert.False(t, cfg.HasLLMProvider())
	cfg.LLM.HuggingFaceToken = "hf"
	assert.True(t, cfg.HasLLMProvider())

	cfg.R2.AccountID = "acct"
	assert.Equal(t, "https://acct.r2.cloudflarestorage.com", cfg.R2Endpoint())
	cfg.R2.Endpoint = "http://localhost:9000"
	assert.Equal(t, "http://localhost:9000", cfg.R2Endpoint())

	cfg.Discussion.Timezone = "nowhere"
	assert.Equal(t, time.UTC, cfg.Location())
}
