// Package lifecycle carries book lifecycle events from the scheduling
// workflow to background subscribers over an in-process watermill bus.
//
// Subscribers run after the interaction response has been returned, so
// they may take longer than Discord's 3 second window.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
)

// Topic is the single watermill topic all lifecycle events go through.
const Topic = "book.lifecycle"

// EventType identifies a CurrentBook transition.
type EventType string

const (
	BookScheduled   EventType = "book_scheduled"
	BookRescheduled EventType = "book_rescheduled"
	BookDeleted     EventType = "book_deleted"
	BookFinished    EventType = "book_finished"
)

// Event is published after a transition has been committed to storage.
type Event struct {
	Type               EventType `json:"type"`
	GuildID            string    `json:"guild_id"`
	UserID             string    `json:"user_id"`
	Title              string    `json:"title"`
	Authors            []string  `json:"authors,omitempty"`
	ISBN               string    `json:"isbn,omitempty"`
	Date               string    `json:"date,omitempty"`
	PreviousDate       string    `json:"previous_date,omitempty"`
	Assignment         string    `json:"assignment,omitempty"`
	PreviousAssignment string    `json:"previous_assignment,omitempty"`
	EventID            string    `json:"event_id,omitempty"`
	OccurredAt         int64     `json:"occurred_at"`
}

// Publisher publishes lifecycle events. Implementations must not block on
// subscriber work.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler processes one event. Returning an error triggers a retry.
type Handler func(ctx context.Context, e Event) error

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

func encode(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	return b, nil
}

func decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("decode lifecycle event: %w", err)
	}
	return e, nil
}
