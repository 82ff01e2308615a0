package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/FlockCS/BookClub/internal/config"
)

// Options configures TTLs and the clock used for expiry.
type Options struct {
	SelectionTTL time.Duration // search results lifetime
	PendingTTL   time.Duration // pending selection lifetime
	Clock        func() time.Time
}

// DB wraps the SQLite database. Writes go through a single connection so
// SQLite never returns SQLITE_BUSY between our own writers; reads use a pool.
type DB struct {
	writer       *sql.DB
	reader       *sql.DB
	path         string
	selectionTTL time.Duration
	pendingTTL   time.Duration
	now          func() time.Time
}

const memoryPath = ":memory:"

// New opens (creating if needed) the database at dbPath and initializes the schema.
func New(ctx context.Context, dbPath string, opts Options) (*DB, error) {
	if opts.SelectionTTL <= 0 {
		opts.SelectionTTL = 15 * time.Minute
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 24 * time.Hour
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	db := &DB{
		path:         dbPath,
		selectionTTL: opts.SelectionTTL,
		pendingTTL:   opts.PendingTTL,
		now:          opts.Clock,
	}

	if dbPath == memoryPath {
		// Every connection to :memory: is a separate database; keep exactly one.
		conn, err := sql.Open("sqlite", memoryPath+"?"+pragmas(false))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		db.writer, db.reader = conn, conn
	} else {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn := "file:" + dbPath + "?" + pragmas(true)

		writer, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		writer.SetMaxOpenConns(1)
		writer.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

		reader, err := sql.Open("sqlite", dsn)
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		reader.SetMaxOpenConns(8)
		reader.SetMaxIdleConns(4)
		reader.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)

		db.writer, db.reader = writer, reader
	}

	if err := db.writer.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, db.writer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// pragmas builds the modernc.org/sqlite _pragma parameters applied to every
// new connection.
func pragmas(wal bool) string {
	v := url.Values{}
	v.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.DatabaseBusyTimeout.Milliseconds()))
	v.Add("_pragma", "foreign_keys(1)")
	if wal {
		v.Add("_pragma", "journal_mode(WAL)")
		v.Add("_pragma", "synchronous(NORMAL)")
	}
	v.Add("_txlock", "immediate")
	return v.Encode()
}

// NewTestDB creates an in-memory database with default TTLs.
func NewTestDB() (*DB, error) {
	return New(context.Background(), memoryPath, Options{})
}

// Close closes the database connections
func (db *DB) Close() error {
	var err error
	if db.reader != nil && db.reader != db.writer {
		err = db.reader.Close()
	}
	if db.writer != nil {
		if werr := db.writer.Close(); werr != nil {
			err = werr
		}
	}
	return err
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Ping checks the database is reachable. Used by /readyz.
func (db *DB) Ping(ctx context.Context) error {
	return db.reader.PingContext(ctx)
}

// withTx runs fn in a write transaction, committing when fn returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// warnIfSlow logs operations slower than config.SlowQueryThreshold.
func warnIfSlow(ctx context.Context, operation string, start time.Time, attrs ...any) {
	duration := time.Since(start)
	if duration <= config.SlowQueryThreshold {
		return
	}
	args := append([]any{"operation", operation, "duration_ms", duration.Milliseconds()}, attrs...)
	slog.WarnContext(ctx, "slow database operation", args...)
}
