package workflow

import (
	"time"

	"github.com/FlockCS/BookClub/internal/discord"
)

// ValidateDate checks that s is an MM-DD-YYYY calendar date strictly after
// the current day in loc.
func ValidateDate(s string, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	if len(s) != len(discord.DateLayout) {
		return errInvalidDate
	}
	// time.Parse rejects out-of-range months and days such as 02-30.
	day, err := time.ParseInLocation(discord.DateLayout, s, loc)
	if err != nil {
		return errInvalidDate.WithCause(err)
	}

	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if !day.After(today) {
		return errInvalidDate
	}
	return nil
}

// ModalTitle returns prefix+title, cutting title so the result fits
// Discord's 45 character modal title limit.
func ModalTitle(prefix, title string) string {
	const maxTitle, ellipsis = 45, "..."
	budget := max(maxTitle-len([]rune(prefix))-len(ellipsis), 0)
	if r := []rune(title); len(r) > budget {
		title = string(r[:budget]) + ellipsis
	}
	return prefix + title
}
