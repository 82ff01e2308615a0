package genai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// openaiWriter writes announcements through an OpenAI-compatible chat
// completions endpoint (the Hugging Face router).
type openaiWriter struct {
	client   openai.Client
	model    string
	provider Provider
}

// newOpenAIWriter creates a writer. Returns nil if apiKey is empty.
// SDK retries are disabled; writeWithRetry owns the retry policy.
func newOpenAIWriter(provider Provider, apiKey, baseURL, model string) *openaiWriter {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultHuggingFaceBaseURL
	}
	if model == "" {
		model = DefaultHuggingFaceModels[0]
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &openaiWriter{client: client, model: model, provider: provider}
}

// Write generates announcement text.
func (w *openaiWriter) Write(ctx context.Context, a Announcement) (string, error) {
	if w == nil {
		return "", ErrEmptyOutput
	}

	params := openai.ChatCompletionNewParams{
		Model: w.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(AnnouncementPrompt(a)),
		},
		Temperature: openai.Float(0.8),
		MaxTokens:   openai.Int(300),
	}

	start := time.Now()
	resp, err := w.client.Chat.Completions.New(ctx, params)
	if err != nil {
		slog.DebugContext(ctx, "chat completion failed",
			"provider", w.provider,
			"model", w.model,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return "", WrapError(err, w.provider, openaiStatus(err))
	}
	if len(resp.Choices) == 0 {
		return "", WrapError(ErrEmptyOutput, w.provider, 0)
	}

	text := cleanOutput(resp.Choices[0].Message.Content)
	if text == "" {
		return "", WrapError(ErrEmptyOutput, w.provider, 0)
	}
	slog.DebugContext(ctx, "chat completion generated",
		"provider", w.provider,
		"model", w.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"total_tokens", resp.Usage.TotalTokens)
	return text, nil
}

func openaiStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func (w *openaiWriter) Provider() Provider { return w.provider }
func (w *openaiWriter) Model() string      { return w.model }
func (w *openaiWriter) Close() error       { return nil }
