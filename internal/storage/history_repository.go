package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// ListHistory returns the guild's finished books, newest first. A limit of
// zero or less returns every entry.
func (db *DB) ListHistory(ctx context.Context, guildID string, limit int) ([]HistoryEntry, error) {
	query := `
		SELECT id, ` + currentBookColumns + `, finished_at, finished_by
		FROM book_history
		WHERE guild_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	start := time.Now()
	rows, err := db.reader.QueryContext(ctx, query, guildID, limit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query history",
			"guild_id", guildID,
			"error", err)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var authors string
		if err := rows.Scan(
			&e.ID,
			&e.GuildID,
			&e.Title,
			&authors,
			&e.ISBN,
			&e.DiscussionDate,
			&e.DiscussionTime,
			&e.ReadingAssignment,
			&e.SetByUser,
			&e.EventID,
			&e.ThumbnailURL,
			&e.PreviewLink,
			&e.Version,
			&e.UpdatedAt,
			&e.FinishedAt,
			&e.FinishedBy,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &e.Authors); err != nil {
			return nil, fmt.Errorf("unmarshal authors: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	warnIfSlow(ctx, "ListHistory", start, "guild_id", guildID, "count", len(entries))
	return entries, nil
}

// CountHistory returns the number of finished books for a guild.
func (db *DB) CountHistory(ctx context.Context, guildID string) (int, error) {
	var count int
	err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM book_history WHERE guild_id = ?`, guildID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}

// ListHistoryGuilds returns the IDs of every guild with at least one history entry.
func (db *DB) ListHistoryGuilds(ctx context.Context) ([]string, error) {
	rows, err := db.reader.QueryContext(ctx, `SELECT DISTINCT guild_id FROM book_history ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("query history guilds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var guilds []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan history guild: %w", err)
		}
		guilds = append(guilds, id)
	}
	return guilds, rows.Err()
}
