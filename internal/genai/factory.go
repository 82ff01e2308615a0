package genai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/ratelimit"
)

// NewAnnouncer builds the writer chain: every Gemini model, then every
// Hugging Face model. Providers without credentials are skipped; with none
// configured the Announcer always uses the template.
func NewAnnouncer(ctx context.Context, cfg Config, m *metrics.Metrics, limiter *ratelimit.KeyedLimiter) (*Announcer, error) {
	var writers []Writer

	geminiModels := cfg.GeminiModels
	if len(geminiModels) == 0 {
		geminiModels = DefaultGeminiModels
	}
	if cfg.GeminiAPIKey != "" {
		for _, model := range geminiModels {
			w, err := newGeminiWriter(ctx, cfg.GeminiAPIKey, model, "")
			if err != nil {
				return nil, fmt.Errorf("gemini writer %s: %w", model, err)
			}
			writers = append(writers, w)
		}
	}

	hfModels := cfg.HuggingFaceModels
	if len(hfModels) == 0 {
		hfModels = DefaultHuggingFaceModels
	}
	if cfg.HuggingFaceToken != "" {
		for _, model := range hfModels {
			writers = append(writers, newOpenAIWriter(ProviderHuggingFace, cfg.HuggingFaceToken, cfg.HuggingFaceBaseURL, model))
		}
	}

	chain := make([]string, 0, len(writers))
	for _, w := range writers {
		chain = append(chain, w.Provider().String()+"/"+w.Model())
	}
	slog.Info("announcement writers configured", "chain", chain)

	return newAnnouncer(writers, cfg.Retry, m, limiter), nil
}
