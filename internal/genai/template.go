package genai

import (
	"fmt"
	"strings"
)

// TemplateAnnouncement returns the fixed announcement used when no model
// produced one.
func TemplateAnnouncement(a Announcement) string {
	by := ""
	if len(a.Authors) > 0 {
		by = " by " + strings.Join(a.Authors, ", ")
	}

	switch a.Kind {
	case KindRescheduled:
		return fmt.Sprintf("📅 The discussion of **%s**%s has moved from %s to %s. Reading: %s.",
			a.Title, by, a.PreviousDate, a.Date, a.Assignment)
	case KindFinished:
		return fmt.Sprintf("🎉 We finished **%s**%s! Thanks for reading along. Use /search to pick our next book.",
			a.Title, by)
	default:
		return fmt.Sprintf("📚 Our next book is **%s**%s! Discussion on %s. Reading: %s. Happy reading 📖",
			a.Title, by, a.Date, a.Assignment)
	}
}
