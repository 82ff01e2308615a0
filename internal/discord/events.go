package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/stringutil"
)

// DateLayout is the MM-DD-YYYY layout used for discussion dates.
const DateLayout = "01-02-2006"

// EventResult is the outcome of a best-effort scheduled-event call.
// Ref is the Discord event ID on success. Err is set on failure and is
// never fatal to the caller's workflow.
type EventResult struct {
	Ref string
	Err error
}

// OK reports whether the call succeeded.
func (r EventResult) OK() bool {
	return r.Err == nil
}

// Discord limits on scheduled event text.
const (
	maxEventName        = 100
	maxEventDescription = 1000
)

// EventSpec describes the discussion a scheduled event represents.
type EventSpec struct {
	Title      string
	Assignment string
	Date       string // MM-DD-YYYY
}

// Name returns the event name shown in Discord, cut to fit its limit.
func (s EventSpec) Name() string {
	return stringutil.Fit("Book Club: "+s.Title, maxEventName)
}

// Description returns the event description shown in Discord.
func (s EventSpec) Description() string {
	desc := fmt.Sprintf("Discussion for %s.", s.Title)
	if s.Assignment != "" {
		desc += fmt.Sprintf(" Reading: %s.", s.Assignment)
	}
	return stringutil.Fit(desc, maxEventDescription)
}

// EventConfig configures where and when discussion events take place.
type EventConfig struct {
	Location       *time.Location
	Hour           int
	Duration       time.Duration
	VoiceChannelID string // voice event when set, external event otherwise
	ExternalPlace  string
	Timeout        time.Duration
}

// EventScheduler manages Discord scheduled events for discussions.
type EventScheduler struct {
	session Session
	cfg     EventConfig
	metrics *metrics.Metrics
}

// NewEventScheduler creates an EventScheduler.
func NewEventScheduler(session Session, cfg EventConfig, m *metrics.Metrics) *EventScheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Duration <= 0 {
		cfg.Duration = time.Hour
	}
	if cfg.ExternalPlace == "" {
		cfg.ExternalPlace = "Book Club"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DiscordEventRequest
	}
	return &EventScheduler{session: session, cfg: cfg, metrics: m}
}

// DiscussionStart returns the discussion start for date (MM-DD-YYYY) at
// hour:00 in loc, converted to UTC.
func DiscussionStart(date string, loc *time.Location, hour int) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse discussion date %q: %w", date, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, loc)
	return start.UTC(), nil
}

func (s *EventScheduler) params(spec EventSpec) (*discordgo.GuildScheduledEventParams, error) {
	start, err := DiscussionStart(spec.Date, s.cfg.Location, s.cfg.Hour)
	if err != nil {
		return nil, err
	}
	end := start.Add(s.cfg.Duration)

	p := &discordgo.GuildScheduledEventParams{
		Name:               spec.Name(),
		Description:        spec.Description(),
		ScheduledStartTime: &start,
		ScheduledEndTime:   &end,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
	if s.cfg.VoiceChannelID != "" {
		p.EntityType = discordgo.GuildScheduledEventEntityTypeVoice
		p.ChannelID = s.cfg.VoiceChannelID
	} else {
		p.EntityType = discordgo.GuildScheduledEventEntityTypeExternal
		p.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: s.cfg.ExternalPlace}
	}
	return p, nil
}

// CreateScheduledEvent creates the discussion event.
func (s *EventScheduler) CreateScheduledEvent(ctx context.Context, guildID string, spec EventSpec) EventResult {
	params, err := s.params(spec)
	if err != nil {
		return s.finish(ctx, "create", guildID, EventResult{Err: err})
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	event, err := s.session.GuildScheduledEventCreate(guildID, params, discordgo.WithContext(ctx))
	if err != nil {
		return s.finish(ctx, "create", guildID, EventResult{Err: fmt.Errorf("create scheduled event: %w", err)})
	}
	return s.finish(ctx, "create", guildID, EventResult{Ref: event.ID})
}

// UpdateScheduledEvent moves eventID to the new date and assignment.
func (s *EventScheduler) UpdateScheduledEvent(ctx context.Context, guildID, eventID string, spec EventSpec) EventResult {
	params, err := s.params(spec)
	if err != nil {
		return s.finish(ctx, "update", guildID, EventResult{Ref: eventID, Err: err})
	}
	// The entity type and location stay as created.
	params.EntityType = 0
	params.EntityMetadata = nil
	params.ChannelID = ""

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if _, err := s.session.GuildScheduledEventEdit(guildID, eventID, params, discordgo.WithContext(ctx)); err != nil {
		return s.finish(ctx, "update", guildID, EventResult{Ref: eventID, Err: fmt.Errorf("update scheduled event: %w", err)})
	}
	return s.finish(ctx, "update", guildID, EventResult{Ref: eventID})
}

// DeleteScheduledEvent removes eventID. An event that no longer exists
// counts as deleted.
func (s *EventScheduler) DeleteScheduledEvent(ctx context.Context, guildID, eventID string) EventResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	err := s.session.GuildScheduledEventDelete(guildID, eventID, discordgo.WithContext(ctx))
	if err != nil && !IsNotFound(err) {
		return s.finish(ctx, "delete", guildID, EventResult{Ref: eventID, Err: fmt.Errorf("delete scheduled event: %w", err)})
	}
	return s.finish(ctx, "delete", guildID, EventResult{Ref: eventID})
}

func (s *EventScheduler) finish(ctx context.Context, op, guildID string, res EventResult) EventResult {
	s.metrics.RecordScheduledEvent(op, res.OK())
	if !res.OK() {
		slog.WarnContext(ctx, "scheduled event call failed",
			"operation", op,
			"guild_id", guildID,
			"event_id", res.Ref,
			"error", res.Err)
	}
	return res
}

// IsNotFound reports whether err is a Discord 404 or unknown-event error.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return true
	}
	return restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownGuildScheduledEvent
}
