// Package workflow implements the per-guild scheduling state machine:
// picking a searched book, scheduling its discussion, rescheduling it, and
// removing it by delete or finish.
//
// State is derived from storage on every step, so any instance sharing the
// database can serve the next click.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/books"
	"github.com/FlockCS/BookClub/internal/discord"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/interaction"
	"github.com/FlockCS/BookClub/internal/lifecycle"
	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/metrics"
	"github.com/FlockCS/BookClub/internal/storage"
)

// GuildState is a guild's position in the scheduling lifecycle as seen by
// one user.
type GuildState int

const (
	// StateEmpty means no current book and no pending selection.
	StateEmpty GuildState = iota
	// StateSelecting means the user picked a book and has not scheduled it.
	StateSelecting
	// StateScheduled means the guild has a current book.
	StateScheduled
)

// String returns the name of s.
func (s GuildState) String() string {
	switch s {
	case StateSelecting:
		return "selecting"
	case StateScheduled:
		return "scheduled"
	default:
		return "empty"
	}
}

// Store is the storage the workflow reads and mutates.
type Store interface {
	storage.SelectionRepository
	storage.PendingRepository
	storage.CurrentBookRepository
}

// EventScheduler manages Discord scheduled events. Calls are best-effort.
type EventScheduler interface {
	CreateScheduledEvent(ctx context.Context, guildID string, spec discord.EventSpec) discord.EventResult
	UpdateScheduledEvent(ctx context.Context, guildID, eventID string, spec discord.EventSpec) discord.EventResult
	DeleteScheduledEvent(ctx context.Context, guildID, eventID string) discord.EventResult
}

// Config holds the workflow's collaborators.
type Config struct {
	Store           Store
	Events          EventScheduler
	Publisher       lifecycle.Publisher
	ModeratorRoleID string
	Location        *time.Location
	Now             func() time.Time
	Metrics         *metrics.Metrics
	Logger          *logger.Logger
}

// Workflow implements interaction.Workflow.
type Workflow struct {
	store     Store
	events    EventScheduler
	publisher lifecycle.Publisher
	modRole   string
	loc       *time.Location
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

var _ interaction.Workflow = (*Workflow)(nil)

// New creates a Workflow.
func New(cfg Config) *Workflow {
	if cfg.Publisher == nil {
		cfg.Publisher = lifecycle.NopPublisher{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("error")
	}
	return &Workflow{
		store:     cfg.Store,
		events:    cfg.Events,
		publisher: cfg.Publisher,
		modRole:   cfg.ModeratorRoleID,
		loc:       cfg.Location,
		now:       cfg.Now,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.WithModule("workflow"),
	}
}

// maxEventSyncs bounds how often syncEvent chases concurrent reschedules.
const maxEventSyncs = 3

// snapshot is the stored state one workflow step acts on.
type snapshot struct {
	book    *storage.CurrentBook
	pending *storage.PendingSelection
}

func (s snapshot) state() GuildState {
	switch {
	case s.book != nil:
		return StateScheduled
	case s.pending != nil:
		return StateSelecting
	default:
		return StateEmpty
	}
}

func (w *Workflow) load(ctx context.Context, guildID, userID string) (snapshot, error) {
	var snap snapshot
	book, err := w.store.GetCurrentBook(ctx, guildID)
	if err != nil {
		return snap, err
	}
	pending, err := w.store.GetPending(ctx, guildID, userID)
	if err != nil {
		return snap, err
	}
	snap.book, snap.pending = book, pending
	return snap, nil
}

// GuildState derives the state of guildID for userID from storage.
func (w *Workflow) GuildState(ctx context.Context, guildID, userID string) (GuildState, error) {
	snap, err := w.load(ctx, guildID, userID)
	if err != nil {
		return StateEmpty, err
	}
	return snap.state(), nil
}

// BeginScheduling answers a numbered result button (reschedule=false) or
// the Reschedule button (reschedule=true) with the scheduling modal.
func (w *Workflow) BeginScheduling(ctx context.Context, i interaction.Interaction, reschedule bool) (resp *discordgo.InteractionResponse, err error) {
	step := "begin_new"
	if reschedule {
		step = "begin_reschedule"
	}
	defer func() { w.record(step, err) }()

	snap, err := w.load(ctx, i.GuildID, i.UserID)
	if err != nil {
		return nil, err
	}

	if reschedule {
		if snap.state() != StateScheduled {
			return nil, errNoCurrentBook
		}
		return scheduleModal(interaction.ScheduleRescheduleModalID,
			ModalTitle(modalReschedulePrefix, snap.book.Title),
			"New Discussion Date | Previous: "+snap.book.DiscussionDate), nil
	}

	// Picking again while selecting replaces the pending selection.
	if snap.state() == StateScheduled {
		return nil, errBookAlreadySet
	}

	set, err := w.store.GetSearchResults(ctx, i.GuildID)
	if err != nil {
		return nil, err
	}
	idx := interaction.SelectedIndex(i.CustomID)
	if set == nil || idx < 0 || idx >= len(set.Results) {
		w.metrics.RecordSelectionLookup("search_results", false)
		return nil, errSelection
	}
	w.metrics.RecordSelectionLookup("search_results", true)

	picked := set.Results[idx]
	if err := w.store.SavePending(ctx, i.GuildID, i.UserID, picked); err != nil {
		return nil, err
	}
	w.logger.WithGuild(i.GuildID).WithField("title", picked.Title).DebugContext(ctx, "Book selected")

	return scheduleModal(interaction.ScheduleNewModalID,
		ModalTitle(modalNewPrefix, picked.Title),
		"Discussion Date | (MM-DD-YYYY)"), nil
}

func scheduleModal(customID, title, dateLabel string) *discordgo.InteractionResponse {
	return interaction.Modal(customID, title,
		discordgo.TextInput{
			CustomID:    interaction.DiscussionDateInputID,
			Label:       dateLabel,
			Style:       discordgo.TextInputShort,
			Placeholder: "03-28-2003",
			Required:    true,
			MinLength:   10,
			MaxLength:   10,
		},
		discordgo.TextInput{
			CustomID:    interaction.AssignmentInputID,
			Label:       "Pages or Chapters to Read",
			Style:       discordgo.TextInputShort,
			Placeholder: "e.g. Chapters 1-3 or Pages 1-50",
			Required:    true,
			MinLength:   1,
			MaxLength:   100,
		},
	)
}

// formInput returns the trimmed date and assignment, validating both.
func (w *Workflow) formInput(i interaction.Interaction) (date, assignment string, err error) {
	date = strings.TrimSpace(i.Value(interaction.DiscussionDateInputID))
	if err := ValidateDate(date, w.now(), w.loc); err != nil {
		return "", "", err
	}
	assignment = strings.TrimSpace(i.Value(interaction.AssignmentInputID))
	if assignment == "" {
		return "", "", errNoAssignment
	}
	return date, assignment, nil
}

// CompleteScheduling handles the submitted scheduling modal.
func (w *Workflow) CompleteScheduling(ctx context.Context, i interaction.Interaction, reschedule bool) (*discordgo.InteractionResponse, error) {
	if reschedule {
		resp, err := w.completeReschedule(ctx, i)
		w.record("complete_reschedule", err)
		return resp, err
	}
	resp, err := w.completeNew(ctx, i)
	w.record("complete_new", err)
	return resp, err
}

func (w *Workflow) completeNew(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	snap, err := w.load(ctx, i.GuildID, i.UserID)
	if err != nil {
		return nil, err
	}
	if snap.pending == nil {
		w.metrics.RecordSelectionLookup("pending", false)
		return nil, errNoPending
	}
	w.metrics.RecordSelectionLookup("pending", true)

	date, assignment, err := w.formInput(i)
	if err != nil {
		return nil, err
	}

	// Skip the event call when another user has already scheduled a book.
	if snap.state() != StateSelecting {
		return nil, errBookAlreadySet
	}

	picked := snap.pending.Book
	spec := discord.EventSpec{Title: picked.Title, Assignment: assignment, Date: date}
	event := w.events.CreateScheduledEvent(ctx, i.GuildID, spec)

	book := &storage.CurrentBook{
		GuildID:           i.GuildID,
		Title:             picked.Title,
		Authors:           picked.Authors,
		ISBN:              picked.ISBN,
		DiscussionDate:    date,
		DiscussionTime:    storage.DefaultDiscussionTime,
		ReadingAssignment: assignment,
		SetByUser:         i.UserID,
		EventID:           event.Ref,
		ThumbnailURL:      picked.ThumbnailURL,
		PreviewLink:       picked.PreviewLink,
	}
	if err := w.store.CreateCurrentBook(ctx, book); err != nil {
		if errors.Is(err, domerrors.ErrBookExists) {
			// Lost the race: remove the event this attempt created.
			if event.Ref != "" {
				w.events.DeleteScheduledEvent(ctx, i.GuildID, event.Ref)
			}
			return nil, errBookAlreadySet.WithCause(err)
		}
		return nil, err
	}

	if err := w.store.DeletePending(ctx, i.GuildID, i.UserID); err != nil {
		// The book is saved; the row expires on its own.
		w.logger.WithGuild(i.GuildID).WithError(err).WarnContext(ctx, "Failed to delete pending selection")
	}

	w.publish(ctx, lifecycle.Event{
		Type:       lifecycle.BookScheduled,
		GuildID:    i.GuildID,
		UserID:     i.UserID,
		Title:      book.Title,
		Authors:    book.Authors,
		ISBN:       book.ISBN,
		Date:       date,
		Assignment: assignment,
		EventID:    event.Ref,
	})
	return interaction.Message(fmt.Sprintf(msgScheduledFormat, book.Title, date)), nil
}

func (w *Workflow) completeReschedule(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	snap, err := w.load(ctx, i.GuildID, i.UserID)
	if err != nil {
		return nil, err
	}
	if snap.state() != StateScheduled {
		return nil, errNoCurrentBook
	}
	book := snap.book

	date, assignment, err := w.formInput(i)
	if err != nil {
		return nil, err
	}

	// The record is committed first so a lost race never touches the event.
	updated, err := w.store.UpdateCurrentBookSchedule(ctx, i.GuildID, book.Version,
		storage.ScheduleUpdate{DiscussionDate: date, ReadingAssignment: assignment})
	if err != nil {
		if errors.Is(err, domerrors.ErrVersionConflict) {
			return nil, errConflict.WithCause(err)
		}
		return nil, err
	}
	w.syncEvent(ctx, updated)

	w.publish(ctx, lifecycle.Event{
		Type:               lifecycle.BookRescheduled,
		GuildID:            i.GuildID,
		UserID:             i.UserID,
		Title:              updated.Title,
		Authors:            updated.Authors,
		ISBN:               updated.ISBN,
		Date:               date,
		PreviousDate:       book.DiscussionDate,
		Assignment:         assignment,
		PreviousAssignment: book.ReadingAssignment,
		EventID:            updated.EventID,
	})
	return interaction.Message(fmt.Sprintf(msgRescheduledFormat,
		updated.Title, book.DiscussionDate, date, book.ReadingAssignment, assignment)), nil
}

// syncEvent moves the book's scheduled event to the stored schedule. When
// another reschedule commits meanwhile, the event is edited again from the
// newer record so the last committed schedule is the one Discord shows.
func (w *Workflow) syncEvent(ctx context.Context, book *storage.CurrentBook) {
	for range maxEventSyncs {
		if book.EventID == "" {
			return
		}
		spec := discord.EventSpec{Title: book.Title, Assignment: book.ReadingAssignment, Date: book.DiscussionDate}
		w.events.UpdateScheduledEvent(ctx, book.GuildID, book.EventID, spec)

		latest, err := w.store.GetCurrentBook(ctx, book.GuildID)
		if err != nil {
			w.logger.WithGuild(book.GuildID).WithError(err).WarnContext(ctx, "Failed to re-read current book after event update")
			return
		}
		if latest == nil || latest.Version == book.Version {
			return
		}
		book = latest
	}
	w.logger.WithGuild(book.GuildID).WarnContext(ctx, "Scheduled event may lag the stored schedule")
}

// ConfirmDelete asks a moderator to confirm deleting the current book.
func (w *Workflow) ConfirmDelete(_ context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	if !i.HasRole(w.modRole) {
		err := errForbidden(i.UserID, "delete")
		w.record("confirm_delete", err)
		return nil, err
	}
	w.record("confirm_delete", nil)
	return interaction.WithComponents(msgConfirmDelete, true, interaction.ButtonRows(
		interaction.Button("No", interaction.DeleteConfirmNoID(i.GuildID), discordgo.SecondaryButton),
		interaction.Button("Yes", interaction.DeleteConfirmYesID(i.GuildID), discordgo.DangerButton),
	)...), nil
}

// CancelDelete acknowledges the "No" button. Nothing changes.
func (w *Workflow) CancelDelete(_ context.Context, _ interaction.Interaction) (*discordgo.InteractionResponse, error) {
	w.record("cancel_delete", nil)
	return interaction.Ephemeral(msgCancelledDelete), nil
}

// ExecuteDelete removes the current book after confirmation.
func (w *Workflow) ExecuteDelete(ctx context.Context, i interaction.Interaction) (resp *discordgo.InteractionResponse, err error) {
	defer func() { w.record("execute_delete", err) }()

	if !i.HasRole(w.modRole) {
		return nil, errForbidden(i.UserID, "delete")
	}

	book, err := w.store.DeleteCurrentBook(ctx, i.GuildID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, errNothingDelete
	}
	if book.EventID != "" {
		w.events.DeleteScheduledEvent(ctx, i.GuildID, book.EventID)
	}

	w.publish(ctx, lifecycle.Event{
		Type:       lifecycle.BookDeleted,
		GuildID:    i.GuildID,
		UserID:     i.UserID,
		Title:      book.Title,
		Authors:    book.Authors,
		ISBN:       book.ISBN,
		Date:       book.DiscussionDate,
		Assignment: book.ReadingAssignment,
		EventID:    book.EventID,
	})
	return interaction.Message(fmt.Sprintf(msgDeletedFormat, book.Title, books.JoinAuthors(book.Authors))), nil
}

// FinishBook archives the current book into history.
func (w *Workflow) FinishBook(ctx context.Context, i interaction.Interaction) (resp *discordgo.InteractionResponse, err error) {
	defer func() { w.record("finish", err) }()

	if !i.HasRole(w.modRole) {
		return nil, errForbidden(i.UserID, "finish")
	}

	entry, err := w.store.FinishCurrentBook(ctx, i.GuildID, i.UserID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, errNothingFinish
	}

	w.publish(ctx, lifecycle.Event{
		Type:       lifecycle.BookFinished,
		GuildID:    i.GuildID,
		UserID:     i.UserID,
		Title:      entry.Title,
		Authors:    entry.Authors,
		ISBN:       entry.ISBN,
		Date:       entry.DiscussionDate,
		Assignment: entry.ReadingAssignment,
	})
	return interaction.Message(fmt.Sprintf(msgFinishedFormat, entry.Title, books.JoinAuthors(entry.Authors))), nil
}

func (w *Workflow) publish(ctx context.Context, e lifecycle.Event) {
	e.OccurredAt = w.now().Unix()
	if err := w.publisher.Publish(ctx, e); err != nil {
		w.logger.WithGuild(e.GuildID).WithError(err).WarnContext(ctx, "Failed to publish lifecycle event")
	}
}

func (w *Workflow) record(step string, err error) {
	result := "ok"
	if err != nil {
		result = domerrors.KindOf(err).String()
	}
	w.metrics.RecordTransition(step, result)
}
