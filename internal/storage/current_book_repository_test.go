package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

func sampleBook(guildID string) *CurrentBook {
	return &CurrentBook{
		GuildID:           guildID,
		Title:             "The Left Hand of Darkness",
		Authors:           []string{"Ursula K. Le Guin"},
		ISBN:              "9780441478125",
		DiscussionDate:    "04-15-2026",
		ReadingAssignment: "Chapters 1-4",
		SetByUser:         "alice",
		EventID:           "evt-1",
	}
}

func TestCurrentBook_CreateAndGet(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	book := sampleBook("g1")
	require.NoError(t, db.CreateCurrentBook(ctx, book))
	assert.Equal(t, int64(1), book.Version)
	assert.Equal(t, DefaultDiscussionTime, book.DiscussionTime)

	got, err := db.GetCurrentBook(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, got.Authors)
	assert.Equal(t, "04-15-2026", got.DiscussionDate)
	assert.Equal(t, "7:00 PM", got.DiscussionTime)
	assert.Equal(t, "evt-1", got.EventID)
	assert.Equal(t, clock.Now().Unix(), got.UpdatedAt)
	assert.True(t, got.UpdatedTime().Equal(clock.Now()))

	none, err := db.GetCurrentBook(ctx, "g2")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCurrentBook_CreateRejectsDuplicate(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCurrentBook(ctx, sampleBook("g1")))

	second := sampleBook("g1")
	second.Title = "Another Book"
	err := db.CreateCurrentBook(ctx, second)
	assert.ErrorIs(t, err, domerrors.ErrBookExists)

	got, err := db.GetCurrentBook(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "The Left Hand of Darkness", got.Title)
}

func TestCurrentBook_ConcurrentCreateHasOneWinner(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Go(func() {
			errs[i] = db.CreateCurrentBook(ctx, sampleBook("g1"))
		})
	}
	wg.Wait()

	var ok, exists int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domerrors.ErrBookExists):
			exists++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, exists)
}

func TestCurrentBook_UpdateSchedule(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCurrentBook(ctx, sampleBook("g1")))
	clock.Advance(time.Hour)

	updated, err := db.UpdateCurrentBookSchedule(ctx, "g1", 1, ScheduleUpdate{
		DiscussionDate:    "05-01-2026",
		ReadingAssignment: "Chapters 5-8",
	})
	require.NoError(t, err)
	assert.Equal(t, "05-01-2026", updated.DiscussionDate)
	assert.Equal(t, "Chapters 5-8", updated.ReadingAssignment)
	assert.Equal(t, "evt-1", updated.EventID, "empty EventID keeps the stored reference")
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, clock.Now().Unix(), updated.UpdatedAt)

	_, err = db.UpdateCurrentBookSchedule(ctx, "g1", 1, ScheduleUpdate{DiscussionDate: "06-01-2026"})
	assert.ErrorIs(t, err, domerrors.ErrVersionConflict)

	updated, err = db.UpdateCurrentBookSchedule(ctx, "g1", 2, ScheduleUpdate{
		DiscussionDate:    "06-01-2026",
		ReadingAssignment: "Chapters 9-12",
		EventID:           "evt-2",
	})
	require.NoError(t, err)
	assert.Equal(t, "evt-2", updated.EventID)
	assert.Equal(t, int64(3), updated.Version)

	_, err = db.UpdateCurrentBookSchedule(ctx, "missing", 1, ScheduleUpdate{})
	assert.ErrorIs(t, err, domerrors.ErrVersionConflict)
}

func TestCurrentBook_Delete(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	deleted, err := db.DeleteCurrentBook(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, deleted)

	require.NoError(t, db.CreateCurrentBook(ctx, sampleBook("g1")))
	deleted, err = db.DeleteCurrentBook(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "The Left Hand of Darkness", deleted.Title)

	got, err := db.GetCurrentBook(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, got)

	count, err := db.CountHistory(ctx, "g1")
	require.NoError(t, err)
	assert.Zero(t, count, "delete must not archive")
}

func TestCurrentBook_Finish(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	entry, err := db.FinishCurrentBook(ctx, "g1", "mod")
	require.NoError(t, err)
	assert.Nil(t, entry)

	require.NoError(t, db.CreateCurrentBook(ctx, sampleBook("g1")))
	clock.Advance(48 * time.Hour)

	entry, err = db.FinishCurrentBook(ctx, "g1", "mod")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Positive(t, entry.ID)
	assert.Equal(t, "The Left Hand of Darkness", entry.Title)
	assert.Equal(t, "alice", entry.SetByUser)
	assert.Equal(t, "mod", entry.FinishedBy)
	assert.Equal(t, clock.Now().Unix(), entry.FinishedAt)

	got, err := db.GetCurrentBook(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, got)

	history, err := db.ListHistory(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, *entry, history[0])

	// The guild can schedule again afterwards.
	require.NoError(t, db.CreateCurrentBook(ctx, sampleBook("g1")))
}

func TestCurrentBook_FinishCopiesFullRecord(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	book := sampleBook("g1")
	book.ThumbnailURL = "http://books.google.com/thumb/9"
	book.PreviewLink = "http://books.google.com/books?id=9"
	require.NoError(t, db.CreateCurrentBook(ctx, book))

	clock.Advance(time.Hour)
	_, err := db.UpdateCurrentBookSchedule(ctx, "g1", 1, ScheduleUpdate{
		DiscussionDate:    "05-01-2026",
		ReadingAssignment: "Chapters 5-8",
		EventID:           "evt-9",
	})
	require.NoError(t, err)

	before, err := db.GetCurrentBook(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, before)

	clock.Advance(24 * time.Hour)
	entry, err := db.FinishCurrentBook(ctx, "g1", "mod")
	require.NoError(t, err)
	require.NotNil(t, entry)

	want := HistoryEntry{
		ID:                entry.ID,
		GuildID:           before.GuildID,
		Title:             before.Title,
		Authors:           before.Authors,
		ISBN:              before.ISBN,
		DiscussionDate:    before.DiscussionDate,
		DiscussionTime:    before.DiscussionTime,
		ReadingAssignment: before.ReadingAssignment,
		SetByUser:         before.SetByUser,
		EventID:           "evt-9",
		ThumbnailURL:      before.ThumbnailURL,
		PreviewLink:       before.PreviewLink,
		Version:           2,
		UpdatedAt:         before.UpdatedAt,
		FinishedAt:        clock.Now().Unix(),
		FinishedBy:        "mod",
	}
	assert.Equal(t, want, *entry)
	assert.NotEqual(t, entry.UpdatedAt, entry.FinishedAt)

	history, err := db.ListHistory(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, want, history[0])
}
