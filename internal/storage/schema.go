package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Connection pragmas (WAL, busy timeout) are set through the DSN in db.go.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, create := range []func(context.Context, *sql.DB) error{
		createSearchResultsTable,
		createPendingSelectionsTable,
		createCurrentBooksTable,
		createBookHistoryTable,
	} {
		if err := create(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func createSearchResultsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS search_results (
		guild_id TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_search_results_expires_at ON search_results(expires_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create search_results table: %w", err)
	}
	return nil
}

func createPendingSelectionsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS pending_selections (
		guild_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (guild_id, user_id)
	);
	CREATE INDEX IF NOT EXISTS idx_pending_selections_expires_at ON pending_selections(expires_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create pending_selections table: %w", err)
	}
	return nil
}

func createCurrentBooksTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS current_books (
		guild_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		authors TEXT NOT NULL,
		isbn TEXT NOT NULL,
		discussion_date TEXT NOT NULL,
		discussion_time TEXT NOT NULL,
		reading_assignment TEXT NOT NULL,
		set_by_user TEXT NOT NULL,
		event_id TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		preview_link TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create current_books table: %w", err)
	}
	return nil
}

func createBookHistoryTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS book_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id TEXT NOT NULL,
		title TEXT NOT NULL,
		authors TEXT NOT NULL,
		isbn TEXT NOT NULL,
		discussion_date TEXT NOT NULL,
		discussion_time TEXT NOT NULL,
		reading_assignment TEXT NOT NULL,
		set_by_user TEXT NOT NULL,
		event_id TEXT NOT NULL DEFAULT '',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		preview_link TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		updated_at INTEGER NOT NULL DEFAULT 0,
		finished_at INTEGER NOT NULL,
		finished_by TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_book_history_guild ON book_history(guild_id, finished_at);
	`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create book_history table: %w", err)
	}
	return nil
}
