package workflow

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
)

func TestValidateDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 2030-03-15 23:30 in New York, already 03-16 in UTC.
	now := time.Date(2030, 3, 16, 3, 30, 0, 0, time.UTC)

	tests := []struct {
		in string
		ok bool
	}{
		{"03-16-2030", true}, // tomorrow in New York
		{"12-31-2099", true},
		{"03-15-2030", false}, // today
		{"03-14-2030", false}, // past
		{"13-45-2025", false},
		{"02-30-2031", false}, // not a calendar date
		{"02-29-2032", true},  // leap day
		{"02-29-2031", false},
		{"3-16-2030", false},
		{"03/16/2030", false},
		{"2030-03-16", false},
		{"03-16-2030 ", false},
		{"", false},
		{"ab-cd-efgh", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateDate(tt.in, now, ny)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domerrors.ErrInvalidDate)
			msg, ok := domerrors.GetUserMessage(err)
			assert.True(t, ok)
			assert.Equal(t, msgInvalidDate, msg)
		})
	}
}

func TestValidateDate_UsesDiscussionTimezone(t *testing.T) {
	// 2030-03-16 01:00 UTC is still 03-15 in New York.
	now := time.Date(2030, 3, 16, 1, 0, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	assert.NoError(t, ValidateDate("03-16-2030", now, ny))
	assert.Error(t, ValidateDate("03-16-2030", now, time.UTC))
}

func TestModalTitle(t *testing.T) {
	assert.Equal(t, "Plan Discussion for Dune", ModalTitle(modalNewPrefix, "Dune"))

	// "Plan Discussion for " is 20 characters, leaving 22 for the title.
	budget := 45 - len(modalNewPrefix) - 3
	exact := strings.Repeat("a", budget)
	assert.Equal(t, modalNewPrefix+exact, ModalTitle(modalNewPrefix, exact))

	long := "The Hitchhiker's Guide to the Galaxy"
	got := ModalTitle(modalNewPrefix, long)
	assert.Equal(t, modalNewPrefix+long[:budget]+"...", got)
	assert.LessOrEqual(t, len([]rune(got)), 45)

	re := ModalTitle(modalReschedulePrefix, long)
	assert.Equal(t, 45, len([]rune(re)))

	// Multi-byte titles are cut on rune boundaries.
	jp := ModalTitle(modalNewPrefix, "ノルウェイの森ノルウェイの森ノルウェイの森ノルウェイの森")
	assert.Equal(t, 45, len([]rune(jp)))
}
