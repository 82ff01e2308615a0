package lifecycle

import (
	"context"
	"log/slog"

	"github.com/FlockCS/BookClub/internal/genai"
)

// ThreadOpener opens the discussion thread of a newly scheduled book.
type ThreadOpener interface {
	OpenDiscussionThread(ctx context.Context, channelID, title, assignment string) (string, error)
}

// Poster sends a message to a channel.
type Poster interface {
	Post(ctx context.Context, channelID, content string) error
}

// AnnouncementWriter produces announcement text. It never fails.
type AnnouncementWriter interface {
	Announce(ctx context.Context, guildID string, a genai.Announcement) (string, genai.Provider)
}

// DiscussionThreads returns a handler that opens a thread in channelID
// for every scheduled book.
func DiscussionThreads(opener ThreadOpener, channelID string) Handler {
	return func(ctx context.Context, e Event) error {
		if e.Type != BookScheduled || channelID == "" {
			return nil
		}
		threadID, err := opener.OpenDiscussionThread(ctx, channelID, e.Title, e.Assignment)
		if err != nil && threadID == "" {
			return err
		}
		if err != nil {
			// The thread exists; retrying would open a second one.
			slog.WarnContext(ctx, "discussion thread opened without message",
				"thread_id", threadID, "error", err)
			return nil
		}
		slog.InfoContext(ctx, "discussion thread opened", "thread_id", threadID, "title", e.Title)
		return nil
	}
}

// Announcements returns a handler that posts an announcement to channelID
// when a book is scheduled, rescheduled or finished. Deletions are silent.
func Announcements(writer AnnouncementWriter, poster Poster, channelID string) Handler {
	return func(ctx context.Context, e Event) error {
		if channelID == "" {
			return nil
		}
		a, ok := announcementFor(e)
		if !ok {
			return nil
		}
		text, provider := writer.Announce(ctx, e.GuildID, a)
		if err := poster.Post(ctx, channelID, text); err != nil {
			return err
		}
		slog.InfoContext(ctx, "announcement posted", "event", e.Type, "provider", provider)
		return nil
	}
}

func announcementFor(e Event) (genai.Announcement, bool) {
	a := genai.Announcement{
		Title:        e.Title,
		Authors:      e.Authors,
		Date:         e.Date,
		PreviousDate: e.PreviousDate,
		Assignment:   e.Assignment,
	}
	switch e.Type {
	case BookScheduled:
		a.Kind = genai.KindScheduled
	case BookRescheduled:
		a.Kind = genai.KindRescheduled
	case BookFinished:
		a.Kind = genai.KindFinished
	default:
		return genai.Announcement{}, false
	}
	return a, true
}
