package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/ctxutil"
	"github.com/FlockCS/BookClub/internal/metrics"
)

// BusConfig tunes retry behaviour of subscribers.
type BusConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	CloseTimeout    time.Duration
}

// DefaultBusConfig returns the production settings.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		MaxRetries:      3,
		InitialInterval: time.Second,
		CloseTimeout:    config.LifecycleCloseTimeout,
	}
}

// Bus is an in-process publish/subscribe bus for lifecycle events.
type Bus struct {
	pubsub  *gochannel.GoChannel
	router  *message.Router
	metrics *metrics.Metrics
	logger  *slog.Logger
	done    chan struct{}
}

// NewBus creates a bus. Register subscribers with Subscribe before Start.
func NewBus(cfg BusConfig, logger *slog.Logger, m *metrics.Metrics) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		PreserveContext:     true,
	}, wmLogger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: cfg.CloseTimeout}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create lifecycle router: %w", err)
	}

	b := &Bus{
		pubsub:  pubsub,
		router:  router,
		metrics: m,
		logger:  logger,
		done:    make(chan struct{}),
	}

	// Outermost first: failures are recorded and acked so gochannel does
	// not redeliver forever.
	router.AddMiddleware(
		b.absorbFailures,
		middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			MaxInterval:     10 * cfg.InitialInterval,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
		middleware.Recoverer,
	)
	return b, nil
}

// Subscribe registers h under name. Every subscriber receives every event.
func (b *Bus) Subscribe(name string, h Handler) {
	b.router.AddConsumerHandler(name, Topic, b.pubsub, func(msg *message.Message) error {
		e, err := decode(msg.Payload)
		if err != nil {
			b.logger.Error("dropping malformed lifecycle event", "handler", name, "error", err)
			return nil
		}
		ctx := msg.Context()
		if err := h(ctx, e); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		b.metrics.RecordLifecycleEvent(string(e.Type), "handled")
		return nil
	})
}

// Start runs the router in the background and waits until subscribers are
// listening, so events published afterwards are not lost.
func (b *Bus) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(b.done)
		if err := b.router.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-b.router.Running():
		return nil
	case err := <-errCh:
		return fmt.Errorf("start lifecycle router: %w", err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish implements Publisher. The message carries only the tracing
// values of ctx so subscribers outlive the interaction request.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	payload, err := encode(e)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctxutil.PreserveTracing(ctx))
	if id := ctxutil.GetInteractionID(ctx); id != "" {
		msg.Metadata.Set(middleware.CorrelationIDMetadataKey, id)
	}

	if err := b.pubsub.Publish(Topic, msg); err != nil {
		b.metrics.RecordLifecycleEvent(string(e.Type), "failed")
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	b.metrics.RecordLifecycleEvent(string(e.Type), "published")
	return nil
}

// Close stops the router, letting in-flight handlers finish within the
// close timeout, then closes the pub/sub.
func (b *Bus) Close() error {
	err := b.router.Close()
	if b.router.IsRunning() {
		<-b.done
	}
	return errors.Join(err, b.pubsub.Close())
}

func (b *Bus) absorbFailures(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := h(msg)
		if err != nil {
			eventType := "unknown"
			if e, decErr := decode(msg.Payload); decErr == nil {
				eventType = string(e.Type)
			}
			b.logger.ErrorContext(msg.Context(), "lifecycle subscriber failed",
				"event", eventType,
				"message_uuid", msg.UUID,
				"error", err)
			b.metrics.RecordLifecycleEvent(eventType, "failed")
		}
		return msgs, nil
	}
}
