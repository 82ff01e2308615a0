// Package storage provides SQLite persistence for the book club: the
// per-guild search result cache, per-user pending selections, the current
// book and its history.
//
// Getters return (nil, nil) when nothing is stored or the row has expired.
package storage

import (
	"context"
)

// SelectionRepository stores each guild's latest search results.
type SelectionRepository interface {
	// SaveSearchResults replaces the guild's result set and restarts its TTL.
	SaveSearchResults(ctx context.Context, guildID string, results []BookCandidate) error
	GetSearchResults(ctx context.Context, guildID string) (*SearchResultSet, error)
}

// PendingRepository stores books picked by a user but not yet scheduled.
type PendingRepository interface {
	SavePending(ctx context.Context, guildID, userID string, book BookCandidate) error
	GetPending(ctx context.Context, guildID, userID string) (*PendingSelection, error)
	DeletePending(ctx context.Context, guildID, userID string) error
}

// CurrentBookRepository manages the single current book of each guild.
type CurrentBookRepository interface {
	GetCurrentBook(ctx context.Context, guildID string) (*CurrentBook, error)

	// CreateCurrentBook inserts book unless the guild already has one, in
	// which case it returns errors.ErrBookExists.
	CreateCurrentBook(ctx context.Context, book *CurrentBook) error

	// UpdateCurrentBookSchedule changes the date and assignment when the
	// stored version still equals expectedVersion, otherwise it returns
	// errors.ErrVersionConflict.
	UpdateCurrentBookSchedule(ctx context.Context, guildID string, expectedVersion int64, update ScheduleUpdate) (*CurrentBook, error)

	// DeleteCurrentBook removes and returns the current book, or (nil, nil).
	DeleteCurrentBook(ctx context.Context, guildID string) (*CurrentBook, error)

	// FinishCurrentBook moves the current book into history in one
	// transaction and returns the new entry, or (nil, nil).
	FinishCurrentBook(ctx context.Context, guildID, finishedBy string) (*HistoryEntry, error)
}

// HistoryRepository reads archived books.
type HistoryRepository interface {
	ListHistory(ctx context.Context, guildID string, limit int) ([]HistoryEntry, error)
	CountHistory(ctx context.Context, guildID string) (int, error)
	ListHistoryGuilds(ctx context.Context) ([]string, error)
}

// MaintenanceRepository removes expired selection rows.
type MaintenanceRepository interface {
	DeleteExpired(ctx context.Context) (ExpiredCounts, error)
}

// HealthRepository reports database reachability.
type HealthRepository interface {
	Ping(ctx context.Context) error
}

// Compile-time interface satisfaction checks.
var (
	_ SelectionRepository   = (*DB)(nil)
	_ PendingRepository     = (*DB)(nil)
	_ CurrentBookRepository = (*DB)(nil)
	_ HistoryRepository     = (*DB)(nil)
	_ MaintenanceRepository = (*DB)(nil)
	_ HealthRepository      = (*DB)(nil)
)
