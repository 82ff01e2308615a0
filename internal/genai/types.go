// Package genai writes book-club announcements with LLM APIs.
//
// Architecture:
//   - Gemini: google.golang.org/genai (official SDK)
//   - Hugging Face router: github.com/openai/openai-go/v3 (OpenAI-compatible API)
//
// Fallback strategy:
//  1. Model retry: transient errors retried with full-jitter backoff
//  2. Writer chain: next model, then next provider
//  3. Template: a fixed announcement when every writer fails
package genai

import (
	"context"
	"time"
)

// Provider identifies who produced an announcement.
type Provider string

const (
	// ProviderGemini is Google's Gemini API.
	ProviderGemini Provider = "gemini"
	// ProviderHuggingFace is the Hugging Face inference router (OpenAI-compatible).
	ProviderHuggingFace Provider = "huggingface"
	// ProviderTemplate is the built-in fallback text.
	ProviderTemplate Provider = "template"
)

// String returns the string representation of the provider.
func (p Provider) String() string {
	return string(p)
}

// Kind is the lifecycle transition being announced.
type Kind string

const (
	KindScheduled   Kind = "scheduled"
	KindRescheduled Kind = "rescheduled"
	KindFinished    Kind = "finished"
)

// Announcement describes what happened to the guild's current book.
type Announcement struct {
	Kind         Kind
	Title        string
	Authors      []string
	Date         string // MM-DD-YYYY
	PreviousDate string // rescheduled only
	Assignment   string
}

// Writer turns an Announcement into message text.
type Writer interface {
	Write(ctx context.Context, a Announcement) (string, error)
	Provider() Provider
	Model() string
	Close() error
}

// RetryConfig defines retry behavior for LLM API calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	MaxAttempts int

	// InitialDelay is the base delay before first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
}

// Retry configuration defaults
const (
	DefaultMaxRetryAttempts  = 2
	DefaultInitialRetryDelay = 500 * time.Millisecond
	DefaultMaxRetryDelay     = 3 * time.Second
)

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  DefaultMaxRetryAttempts,
		InitialDelay: DefaultInitialRetryDelay,
		MaxDelay:     DefaultMaxRetryDelay,
	}
}

// Config holds provider credentials and model chains.
type Config struct {
	GeminiAPIKey string
	GeminiModels []string

	HuggingFaceToken   string
	HuggingFaceBaseURL string
	HuggingFaceModels  []string

	Retry RetryConfig
}

// Default model chains. The first element is primary.
var (
	DefaultGeminiModels      = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}
	DefaultHuggingFaceModels = []string{"google/gemma-2-2b-it"}
)

// DefaultHuggingFaceBaseURL is the OpenAI-compatible Hugging Face router.
const DefaultHuggingFaceBaseURL = "https://router.huggingface.co/v1/"

// maxAnnouncementRunes caps generated text below Discord's 2000 character limit.
const maxAnnouncementRunes = 1800
