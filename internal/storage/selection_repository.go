package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// SaveSearchResults replaces the guild's result set. Results are never merged.
func (db *DB) SaveSearchResults(ctx context.Context, guildID string, results []BookCandidate) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal search results: %w", err)
	}

	query := `
		INSERT INTO search_results (guild_id, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`
	start := time.Now()
	now := db.now()
	if _, err := db.writer.ExecContext(ctx, query, guildID, string(payload), now.Unix(), now.Add(db.selectionTTL).Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save search results",
			"guild_id", guildID,
			"error", err)
		return fmt.Errorf("save search results: %w", err)
	}
	warnIfSlow(ctx, "SaveSearchResults", start, "guild_id", guildID)
	return nil
}

// GetSearchResults returns the guild's unexpired result set, or (nil, nil).
func (db *DB) GetSearchResults(ctx context.Context, guildID string) (*SearchResultSet, error) {
	query := `SELECT payload, created_at, expires_at FROM search_results WHERE guild_id = ? AND expires_at > ?`

	set := SearchResultSet{GuildID: guildID}
	var payload string
	start := time.Now()
	err := db.reader.QueryRowContext(ctx, query, guildID, db.now().Unix()).Scan(&payload, &set.CreatedAt, &set.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query search results",
			"guild_id", guildID,
			"error", err)
		return nil, fmt.Errorf("query search results: %w", err)
	}
	warnIfSlow(ctx, "GetSearchResults", start, "guild_id", guildID)

	if err := json.Unmarshal([]byte(payload), &set.Results); err != nil {
		return nil, fmt.Errorf("unmarshal search results: %w", err)
	}
	return &set, nil
}

// SavePending stores the user's picked book, replacing any earlier pick.
func (db *DB) SavePending(ctx context.Context, guildID, userID string, book BookCandidate) error {
	payload, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("marshal pending selection: %w", err)
	}

	query := `
		INSERT INTO pending_selections (guild_id, user_id, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, user_id) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`
	start := time.Now()
	now := db.now()
	if _, err := db.writer.ExecContext(ctx, query, guildID, userID, string(payload), now.Unix(), now.Add(db.pendingTTL).Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save pending selection",
			"guild_id", guildID,
			"user_id", userID,
			"error", err)
		return fmt.Errorf("save pending selection: %w", err)
	}
	warnIfSlow(ctx, "SavePending", start, "guild_id", guildID)
	return nil
}

// GetPending returns the user's unexpired pick, or (nil, nil).
func (db *DB) GetPending(ctx context.Context, guildID, userID string) (*PendingSelection, error) {
	query := `
		SELECT payload, created_at, expires_at FROM pending_selections
		WHERE guild_id = ? AND user_id = ? AND expires_at > ?
	`

	sel := PendingSelection{GuildID: guildID, UserID: userID}
	var payload string
	err := db.reader.QueryRowContext(ctx, query, guildID, userID, db.now().Unix()).Scan(&payload, &sel.CreatedAt, &sel.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query pending selection",
			"guild_id", guildID,
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("query pending selection: %w", err)
	}

	if err := json.Unmarshal([]byte(payload), &sel.Book); err != nil {
		return nil, fmt.Errorf("unmarshal pending selection: %w", err)
	}
	return &sel, nil
}

// DeletePending removes the user's pick. Deleting a missing row is not an error.
func (db *DB) DeletePending(ctx context.Context, guildID, userID string) error {
	query := `DELETE FROM pending_selections WHERE guild_id = ? AND user_id = ?`
	if _, err := db.writer.ExecContext(ctx, query, guildID, userID); err != nil {
		slog.ErrorContext(ctx, "failed to delete pending selection",
			"guild_id", guildID,
			"user_id", userID,
			"error", err)
		return fmt.Errorf("delete pending selection: %w", err)
	}
	return nil
}

// DeleteExpired removes expired search results and pending selections.
func (db *DB) DeleteExpired(ctx context.Context) (ExpiredCounts, error) {
	var counts ExpiredCounts
	now := db.now().Unix()
	start := time.Now()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM search_results WHERE expires_at <= ?`, now)
		if err != nil {
			return fmt.Errorf("delete expired search results: %w", err)
		}
		counts.SearchResults, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM pending_selections WHERE expires_at <= ?`, now)
		if err != nil {
			return fmt.Errorf("delete expired pending selections: %w", err)
		}
		counts.PendingSelections, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete expired selections", "error", err)
		return ExpiredCounts{}, err
	}
	warnIfSlow(ctx, "DeleteExpired", start, "deleted", counts.Total())
	return counts, nil
}
