package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishBooks(t *testing.T, db *DB, clock *testClock, guildID string, titles ...string) {
	t.Helper()
	ctx := context.Background()
	for _, title := range titles {
		book := sampleBook(guildID)
		book.Title = title
		require.NoError(t, db.CreateCurrentBook(ctx, book))
		clock.Advance(time.Hour)
		_, err := db.FinishCurrentBook(ctx, guildID, "mod")
		require.NoError(t, err)
	}
}

func TestListHistory_NewestFirst(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	finishBooks(t, db, clock, "g1", "First", "Second", "Third")
	finishBooks(t, db, clock, "g2", "Elsewhere")

	all, err := db.ListHistory(ctx, "g1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Third", all[0].Title)
	assert.Equal(t, "First", all[2].Title)

	limited, err := db.ListHistory(ctx, "g1", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Second", limited[1].Title)

	empty, err := db.ListHistory(ctx, "none", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCountHistoryAndGuilds(t *testing.T) {
	db, clock := setupTestDB(t)
	ctx := context.Background()

	for i := range 3 {
		finishBooks(t, db, clock, fmt.Sprintf("g%d", i), "Book")
	}
	finishBooks(t, db, clock, "g0", "Another")

	count, err := db.CountHistory(ctx, "g0")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	guilds, err := db.ListHistoryGuilds(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"g0", "g1", "g2"}, guilds)
}
