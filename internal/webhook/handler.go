// Package webhook receives Discord interaction webhooks, verifies their
// signature and hands them to the interaction router.
package webhook

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"

	"github.com/FlockCS/BookClub/internal/interaction"
	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/metrics"
)

// DefaultMaxBodySize caps an interaction payload. Discord payloads are a
// few kilobytes even with resolved members.
const DefaultMaxBodySize = 1 << 20

// Dispatcher turns one interaction into its response.
type Dispatcher interface {
	Handle(ctx context.Context, i interaction.Interaction) *discordgo.InteractionResponse
}

// Handler handles Discord interaction webhooks
type Handler struct {
	publicKey   ed25519.PublicKey
	dispatcher  Dispatcher
	metrics     *metrics.Metrics
	logger      *logger.Logger
	maxBodySize int64
	wg          sync.WaitGroup // in-flight interactions
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	// PublicKey is the application's Ed25519 key from the developer portal.
	PublicKey  ed25519.PublicKey
	Dispatcher Dispatcher
	Metrics    *metrics.Metrics
	Logger     *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig, opts ...HandlerOption) (*Handler, error) {
	if len(cfg.PublicKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("public key: want %d bytes, got %d", ed25519.PublicKeySize, len(cfg.PublicKey))
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewWithWriter("error", io.Discard)
	}

	h := &Handler{
		publicKey:   cfg.PublicKey,
		dispatcher:  cfg.Dispatcher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.WithModule("webhook"),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle is the Gin handler for the interactions endpoint.
//
// Discord delivers each interaction as one signed POST and expects the
// initial response in the HTTP reply, so the router runs inline.
func (h *Handler) Handle(c *gin.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	// 1. Verify signature. VerifyInteraction restores the body it reads.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodySize)
	if !discordgo.VerifyInteraction(c.Request, h.publicKey) {
		h.logger.Warn("Invalid interaction signature")
		h.metrics.RecordInteraction("unverified", "rejected", "unauthorized", 0)
		c.Status(http.StatusUnauthorized)
		return
	}

	// 2. Decode
	var di discordgo.Interaction
	if err := json.NewDecoder(c.Request.Body).Decode(&di); err != nil {
		h.logger.WithError(err).Warn("Failed to decode interaction")
		c.Status(http.StatusBadRequest)
		return
	}
	in, err := interaction.FromDiscord(&di)
	if err != nil {
		h.logger.WithError(err).WithField("type", int(di.Type)).Warn("Malformed interaction")
		c.Status(http.StatusBadRequest)
		return
	}

	// 3. Route
	start := time.Now()
	resp := h.dispatcher.Handle(c.Request.Context(), in)

	h.logger.WithField("kind", in.Kind.String()).
		WithField("interaction_id", in.ID).
		WithField("guild_id", in.GuildID).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("Interaction handled")

	c.JSON(http.StatusOK, resp)
}

// Shutdown waits for in-flight interactions to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
