// Package ctxutil provides type-safe context value management.
// Uses private key types to prevent collisions.
package ctxutil

import (
	"context"
)

type contextKey string

const (
	guildIDKey       contextKey = "ctxutil.guildID"
	userIDKey        contextKey = "ctxutil.userID"
	interactionIDKey contextKey = "ctxutil.interactionID"
	requestIDKey     contextKey = "ctxutil.requestID"
)

// WithGuildID adds a guild ID to the context.
// The guild is the tenancy unit for every piece of book-club state.
func WithGuildID(ctx context.Context, guildID string) context.Context {
	return context.WithValue(ctx, guildIDKey, guildID)
}

// GetGuildID retrieves the guild ID from the context.
// Returns an empty string when not set.
func GetGuildID(ctx context.Context) string {
	if v, ok := ctx.Value(guildIDKey).(string); ok {
		return v
	}
	return ""
}

// MustGetGuildID retrieves the guild ID from the context.
// Panics if the guild ID is not found. Use only after the webhook handler
// has populated the context.
func MustGetGuildID(ctx context.Context) string {
	guildID, ok := ctx.Value(guildIDKey).(string)
	if !ok || guildID == "" {
		panic("ctxutil: guildID not found")
	}
	return guildID
}

// WithUserID adds the invoking Discord user ID to the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID retrieves the user ID from the context.
// Returns an empty string when not set.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithInteractionID adds the Discord interaction ID to the context.
func WithInteractionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, interactionIDKey, id)
}

// GetInteractionID retrieves the interaction ID from the context.
func GetInteractionID(ctx context.Context) string {
	if v, ok := ctx.Value(interactionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context for log correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
// Returns the request ID and true if found, empty string and false otherwise.
func GetRequestID(ctx context.Context) (string, bool) {
	requestID, ok := ctx.Value(requestIDKey).(string)
	return requestID, ok
}

// PreserveTracing creates a detached context carrying only the tracing values.
// The new context is independent of the parent's cancellation and deadline.
//
// Lifecycle subscribers use it so announcement work can finish after the
// interaction response has been written.
func PreserveTracing(ctx context.Context) context.Context {
	newCtx := context.Background()

	if guildID := GetGuildID(ctx); guildID != "" {
		newCtx = WithGuildID(newCtx, guildID)
	}
	if userID := GetUserID(ctx); userID != "" {
		newCtx = WithUserID(newCtx, userID)
	}
	if id := GetInteractionID(ctx); id != "" {
		newCtx = WithInteractionID(newCtx, id)
	}
	if requestID, ok := GetRequestID(ctx); ok && requestID != "" {
		newCtx = WithRequestID(newCtx, requestID)
	}

	return newCtx
}
