package genai

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write short, upbeat announcements for a Discord book club.
Rules:
- At most 4 sentences and 600 characters.
- Mention the book title exactly as given.
- Include the date when one is given, exactly as given (MM-DD-YYYY).
- One or two emoji are fine. No hashtags, no @mentions, no links.
- Reply with the announcement text only.`

// AnnouncementPrompt builds the user prompt for a.
func AnnouncementPrompt(a Announcement) string {
	var b strings.Builder
	switch a.Kind {
	case KindScheduled:
		b.WriteString("Announce the club's next book.\n")
	case KindRescheduled:
		b.WriteString("Announce that the discussion has moved to a new date.\n")
	case KindFinished:
		b.WriteString("Celebrate that the club finished this book and invite everyone to pick the next one with /search.\n")
	}
	fmt.Fprintf(&b, "Title: %s\n", a.Title)
	if len(a.Authors) > 0 {
		fmt.Fprintf(&b, "Authors: %s\n", strings.Join(a.Authors, ", "))
	}
	if a.Date != "" && a.Kind != KindFinished {
		fmt.Fprintf(&b, "Discussion date: %s\n", a.Date)
	}
	if a.PreviousDate != "" {
		fmt.Fprintf(&b, "Previous date: %s\n", a.PreviousDate)
	}
	if a.Assignment != "" && a.Kind != KindFinished {
		fmt.Fprintf(&b, "Reading before the discussion: %s\n", a.Assignment)
	}
	return b.String()
}

// cleanOutput trims model output and caps its length.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"")
	if r := []rune(s); len(r) > maxAnnouncementRunes {
		s = string(r[:maxAnnouncementRunes]) + "..."
	}
	return strings.TrimSpace(s)
}
