package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

// ScheduleUpdate holds the fields a reschedule may change.
type ScheduleUpdate struct {
	DiscussionDate    string
	ReadingAssignment string
	EventID           string // kept unchanged when empty
}

const currentBookColumns = `guild_id, title, authors, isbn, discussion_date, discussion_time,
	reading_assignment, set_by_user, event_id, thumbnail_url, preview_link, version, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCurrentBook(row rowScanner) (*CurrentBook, error) {
	var book CurrentBook
	var authors string
	err := row.Scan(
		&book.GuildID,
		&book.Title,
		&authors,
		&book.ISBN,
		&book.DiscussionDate,
		&book.DiscussionTime,
		&book.ReadingAssignment,
		&book.SetByUser,
		&book.EventID,
		&book.ThumbnailURL,
		&book.PreviewLink,
		&book.Version,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(authors), &book.Authors); err != nil {
		return nil, fmt.Errorf("unmarshal authors: %w", err)
	}
	return &book, nil
}

func marshalAuthors(authors []string) (string, error) {
	if authors == nil {
		authors = []string{}
	}
	b, err := json.Marshal(authors)
	if err != nil {
		return "", fmt.Errorf("marshal authors: %w", err)
	}
	return string(b), nil
}

// GetCurrentBook returns the guild's current book, or (nil, nil).
func (db *DB) GetCurrentBook(ctx context.Context, guildID string) (*CurrentBook, error) {
	query := `SELECT ` + currentBookColumns + ` FROM current_books WHERE guild_id = ?`

	start := time.Now()
	book, err := scanCurrentBook(db.reader.QueryRowContext(ctx, query, guildID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query current book",
			"guild_id", guildID,
			"error", err)
		return nil, fmt.Errorf("query current book: %w", err)
	}
	warnIfSlow(ctx, "GetCurrentBook", start, "guild_id", guildID)
	return book, nil
}

// CreateCurrentBook inserts book when the guild has none. On success book
// carries the stored Version and UpdatedAt.
func (db *DB) CreateCurrentBook(ctx context.Context, book *CurrentBook) error {
	authors, err := marshalAuthors(book.Authors)
	if err != nil {
		return err
	}
	if book.DiscussionTime == "" {
		book.DiscussionTime = DefaultDiscussionTime
	}

	query := `
		INSERT INTO current_books (` + currentBookColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)
		ON CONFLICT(guild_id) DO NOTHING
	`
	start := time.Now()
	now := db.now().Unix()
	res, err := db.writer.ExecContext(ctx, query,
		book.GuildID,
		book.Title,
		authors,
		book.ISBN,
		book.DiscussionDate,
		book.DiscussionTime,
		book.ReadingAssignment,
		book.SetByUser,
		book.EventID,
		book.ThumbnailURL,
		book.PreviewLink,
		now,
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to insert current book",
			"guild_id", book.GuildID,
			"error", err)
		return fmt.Errorf("insert current book: %w", err)
	}
	warnIfSlow(ctx, "CreateCurrentBook", start, "guild_id", book.GuildID)

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert current book: %w", err)
	}
	if n == 0 {
		return domerrors.ErrBookExists
	}
	book.Version = 1
	book.UpdatedAt = now
	return nil
}

// UpdateCurrentBookSchedule applies update when the stored version matches
// expectedVersion and returns the updated row.
func (db *DB) UpdateCurrentBookSchedule(ctx context.Context, guildID string, expectedVersion int64, update ScheduleUpdate) (*CurrentBook, error) {
	query := `
		UPDATE current_books SET
			discussion_date = ?,
			reading_assignment = ?,
			event_id = CASE WHEN ? = '' THEN event_id ELSE ? END,
			version = version + 1,
			updated_at = ?
		WHERE guild_id = ? AND version = ?
		RETURNING ` + currentBookColumns

	start := time.Now()
	book, err := scanCurrentBook(db.writer.QueryRowContext(ctx, query,
		update.DiscussionDate,
		update.ReadingAssignment,
		update.EventID, update.EventID,
		db.now().Unix(),
		guildID,
		expectedVersion,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.ErrVersionConflict
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to update current book",
			"guild_id", guildID,
			"error", err)
		return nil, fmt.Errorf("update current book: %w", err)
	}
	warnIfSlow(ctx, "UpdateCurrentBookSchedule", start, "guild_id", guildID)
	return book, nil
}

// DeleteCurrentBook removes the guild's current book and returns it, or (nil, nil).
func (db *DB) DeleteCurrentBook(ctx context.Context, guildID string) (*CurrentBook, error) {
	query := `DELETE FROM current_books WHERE guild_id = ? RETURNING ` + currentBookColumns

	start := time.Now()
	book, err := scanCurrentBook(db.writer.QueryRowContext(ctx, query, guildID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete current book",
			"guild_id", guildID,
			"error", err)
		return nil, fmt.Errorf("delete current book: %w", err)
	}
	warnIfSlow(ctx, "DeleteCurrentBook", start, "guild_id", guildID)
	return book, nil
}

// FinishCurrentBook copies the current book into book_history and deletes
// it in the same transaction.
func (db *DB) FinishCurrentBook(ctx context.Context, guildID, finishedBy string) (*HistoryEntry, error) {
	var entry *HistoryEntry
	start := time.Now()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		book, err := scanCurrentBook(tx.QueryRowContext(ctx,
			`SELECT `+currentBookColumns+` FROM current_books WHERE guild_id = ?`, guildID))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("select current book: %w", err)
		}

		authors, err := marshalAuthors(book.Authors)
		if err != nil {
			return err
		}
		finishedAt := db.now().Unix()
		res, err := tx.ExecContext(ctx, `
			INSERT INTO book_history (`+currentBookColumns+`, finished_at, finished_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			book.GuildID,
			book.Title,
			authors,
			book.ISBN,
			book.DiscussionDate,
			book.DiscussionTime,
			book.ReadingAssignment,
			book.SetByUser,
			book.EventID,
			book.ThumbnailURL,
			book.PreviewLink,
			book.Version,
			book.UpdatedAt,
			finishedAt,
			finishedBy,
		)
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM current_books WHERE guild_id = ?`, guildID); err != nil {
			return fmt.Errorf("delete current book: %w", err)
		}

		entry = &HistoryEntry{
			ID:                id,
			GuildID:           book.GuildID,
			Title:             book.Title,
			Authors:           book.Authors,
			ISBN:              book.ISBN,
			DiscussionDate:    book.DiscussionDate,
			DiscussionTime:    book.DiscussionTime,
			ReadingAssignment: book.ReadingAssignment,
			SetByUser:         book.SetByUser,
			EventID:           book.EventID,
			ThumbnailURL:      book.ThumbnailURL,
			PreviewLink:       book.PreviewLink,
			Version:           book.Version,
			UpdatedAt:         book.UpdatedAt,
			FinishedAt:        finishedAt,
			FinishedBy:        finishedBy,
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to finish current book",
			"guild_id", guildID,
			"error", err)
		return nil, err
	}
	warnIfSlow(ctx, "FinishCurrentBook", start, "guild_id", guildID)
	return entry, nil
}
