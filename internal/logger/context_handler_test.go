package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/FlockCS/BookClub/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		setup    func(context.Context) context.Context
		expected []string
		absent   []string
	}{
		{
			name: "extracts all tracing values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithGuildID(ctx, "G1")
				ctx = ctxutil.WithUserID(ctx, "U1")
				ctx = ctxutil.WithInteractionID(ctx, "I1")
				return ctxutil.WithRequestID(ctx, "R1")
			},
			expected: []string{`"guild_id":"G1"`, `"user_id":"U1"`, `"interaction_id":"I1"`, `"request_id":"R1"`},
		},
		{
			name: "partial context",
			setup: func(ctx context.Context) context.Context {
				return ctxutil.WithGuildID(ctx, "G2")
			},
			expected: []string{`"guild_id":"G2"`},
			absent:   []string{"user_id", "interaction_id", "request_id"},
		},
		{
			name: "skips empty values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithUserID(ctx, "")
				return ctxutil.WithRequestID(ctx, "")
			},
			absent: []string{"user_id", "request_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := slog.New(NewContextHandler(slog.NewJSONHandler(&buf, nil)))
			log.InfoContext(tt.setup(context.Background()), "handled")

			out := buf.String()
			for _, want := range tt.expected {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %s: %s", want, out)
				}
			}
			for _, key := range tt.absent {
				if strings.Contains(out, key) {
					t.Errorf("output should not contain %s: %s", key, out)
				}
			}
		})
	}
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var h slog.Handler = NewContextHandler(slog.NewJSONHandler(&buf, nil))
	h = h.WithAttrs([]slog.Attr{slog.String("module", "router")})

	if _, ok := h.(*ContextHandler); !ok {
		t.Fatalf("WithAttrs returned %T, want *ContextHandler", h)
	}
	slog.New(h).InfoContext(ctxutil.WithGuildID(context.Background(), "G3"), "x")

	out := buf.String()
	if !strings.Contains(out, `"module":"router"`) || !strings.Contains(out, `"guild_id":"G3"`) {
		t.Errorf("unexpected output: %s", out)
	}

	if _, ok := h.WithGroup("grp").(*ContextHandler); !ok {
		t.Error("WithGroup should keep the ContextHandler wrapper")
	}
}
