package interaction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/ctxutil"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/ratelimit"
	"github.com/FlockCS/BookClub/internal/sentry"
)

// Fixed replies of the router itself.
const (
	UnknownInteractionMessage = "Unknown interaction"
	InternalErrorMessage      = "❗ Something went wrong. Please try again later."
	ThrottledMessage          = "⏳ You're doing that too fast."
)

// HandlerFunc handles one routed interaction.
type HandlerFunc func(ctx context.Context, i Interaction) (*discordgo.InteractionResponse, error)

// Workflow is the scheduling state machine the router dispatches to.
type Workflow interface {
	BeginScheduling(ctx context.Context, i Interaction, reschedule bool) (*discordgo.InteractionResponse, error)
	CompleteScheduling(ctx context.Context, i Interaction, reschedule bool) (*discordgo.InteractionResponse, error)
	ConfirmDelete(ctx context.Context, i Interaction) (*discordgo.InteractionResponse, error)
	CancelDelete(ctx context.Context, i Interaction) (*discordgo.InteractionResponse, error)
	ExecuteDelete(ctx context.Context, i Interaction) (*discordgo.InteractionResponse, error)
	FinishBook(ctx context.Context, i Interaction) (*discordgo.InteractionResponse, error)
}

// RouterConfig holds the router's collaborators.
type RouterConfig struct {
	Commands map[string]HandlerFunc
	Workflow Workflow
	// UserLimiter throttles interactions per user. Nil disables throttling.
	UserLimiter *ratelimit.KeyedLimiter
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
	// Timeout bounds one interaction. Zero uses config.WebhookProcessing.
	Timeout time.Duration
}

// Router dispatches interactions and always produces a response.
type Router struct {
	commands map[string]HandlerFunc
	workflow Workflow
	limiter  *ratelimit.KeyedLimiter
	metrics  *metrics.Metrics
	logger   *logger.Logger
	timeout  time.Duration
}

// NewRouter creates a Router.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewWithWriter("error", io.Discard)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.WebhookProcessing
	}
	return &Router{
		commands: cfg.Commands,
		workflow: cfg.Workflow,
		limiter:  cfg.UserLimiter,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger.WithModule("interaction"),
		timeout:  cfg.Timeout,
	}
}

// Handle routes i and converts any step error into a user-visible reply.
func (r *Router) Handle(ctx context.Context, i Interaction) *discordgo.InteractionResponse {
	start := time.Now()

	ctx = ctxutil.WithGuildID(ctx, i.GuildID)
	ctx = ctxutil.WithUserID(ctx, i.UserID)
	ctx = ctxutil.WithInteractionID(ctx, i.ID)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	route := Match(i)
	label := route.String()
	if route == RouteCommand {
		label = i.CommandName
	}

	var (
		resp    *discordgo.InteractionResponse
		outcome string
	)
	if route != RoutePing && r.limiter != nil && !r.limiter.Allow(i.UserID) {
		resp, outcome = Ephemeral(ThrottledMessage), "throttled"
	} else {
		var err error
		resp, err = r.dispatch(ctx, route, i)
		resp, outcome = r.render(ctx, i, label, resp, err)
	}

	r.metrics.RecordInteraction(i.Kind.String(), label, outcome, time.Since(start).Seconds())
	return resp
}

func (r *Router) dispatch(ctx context.Context, route Route, i Interaction) (*discordgo.InteractionResponse, error) {
	switch route {
	case RoutePing:
		return Pong(), nil
	case RouteCommand:
		h, ok := r.commands[i.CommandName]
		if !ok {
			return nil, fmt.Errorf("command %q: %w", i.CommandName, domerrors.ErrUnknownInteraction)
		}
		return h(ctx, i)
	case RouteUnknown:
		return nil, domerrors.ErrUnknownInteraction
	}

	if r.workflow == nil {
		return nil, errors.New("workflow not configured")
	}
	switch route {
	case RouteSelectBook:
		return r.workflow.BeginScheduling(ctx, i, false)
	case RouteRescheduleBook:
		return r.workflow.BeginScheduling(ctx, i, true)
	case RouteFinishBook:
		return r.workflow.FinishBook(ctx, i)
	case RouteDeleteBook:
		return r.workflow.ConfirmDelete(ctx, i)
	case RouteDeleteCancel:
		return r.workflow.CancelDelete(ctx, i)
	case RouteDeleteConfirm:
		return r.workflow.ExecuteDelete(ctx, i)
	case RouteCompleteReschedule:
		return r.workflow.CompleteScheduling(ctx, i, true)
	case RouteCompleteNew:
		return r.workflow.CompleteScheduling(ctx, i, false)
	default:
		return nil, domerrors.ErrUnknownInteraction
	}
}

// render maps a step result to the reply and the outcome metric label.
func (r *Router) render(ctx context.Context, i Interaction, label string, resp *discordgo.InteractionResponse, err error) (*discordgo.InteractionResponse, string) {
	if err == nil {
		if resp == nil {
			r.logger.WithField("route", label).Error("Handler returned no response")
			return Ephemeral(InternalErrorMessage), "internal"
		}
		return resp, "ok"
	}

	if errors.Is(err, domerrors.ErrUnknownInteraction) {
		r.logger.WithFields(map[string]any{
			"kind":      i.Kind.String(),
			"custom_id": i.CustomID,
			"command":   i.CommandName,
		}).Warn("Unknown interaction")
		return Ephemeral(UnknownInteractionMessage), "unknown"
	}

	if msg, ok := domerrors.GetUserMessage(err); ok {
		kind := domerrors.KindOf(err)
		r.logger.WithField("route", label).WithError(err).DebugContext(ctx, "Interaction rejected")
		return Ephemeral(msg), kind.String()
	}

	r.logger.WithField("route", label).WithError(err).ErrorContext(ctx, "Interaction failed")
	sentry.CaptureExceptionWithContext(ctx, err)
	return Ephemeral(InternalErrorMessage), "internal"
}
