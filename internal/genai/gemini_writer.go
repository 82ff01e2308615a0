package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// geminiWriter writes announcements with one Gemini model.
type geminiWriter struct {
	client *genai.Client
	model  string
}

// newGeminiWriter creates a Gemini writer. baseURL overrides the API
// endpoint when non-empty.
func newGeminiWriter(ctx context.Context, apiKey, model, baseURL string) (*geminiWriter, error) {
	if apiKey == "" {
		return nil, nil //nolint:nilnil // Intentional: provider disabled when no API key
	}
	if model == "" {
		model = DefaultGeminiModels[0]
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiWriter{client: client, model: model}, nil
}

// Write generates announcement text.
func (w *geminiWriter) Write(ctx context.Context, a Announcement) (string, error) {
	if w == nil || w.client == nil {
		return "", ErrEmptyOutput
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.8),
		MaxOutputTokens:   300,
	}

	start := time.Now()
	resp, err := w.client.Models.GenerateContent(ctx, w.model, genai.Text(AnnouncementPrompt(a)), config)
	if err != nil {
		slog.DebugContext(ctx, "gemini announcement failed",
			"model", w.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", WrapError(err, ProviderGemini, geminiStatus(err))
	}

	text := cleanOutput(resp.Text())
	if text == "" {
		return "", WrapError(ErrEmptyOutput, ProviderGemini, 0)
	}
	slog.DebugContext(ctx, "gemini announcement generated",
		"model", w.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"length", len(text))
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

func (w *geminiWriter) Provider() Provider { return ProviderGemini }
func (w *geminiWriter) Model() string      { return w.model }

// Close releases resources. The genai client holds no persistent connections.
func (w *geminiWriter) Close() error { return nil }
