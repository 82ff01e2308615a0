package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/config"
)

// Messenger posts discussion threads and channel messages.
type Messenger struct {
	session Session
}

// NewMessenger creates a Messenger.
func NewMessenger(session Session) *Messenger {
	return &Messenger{session: session}
}

// ThreadName returns the name of the first discussion thread for a book.
func ThreadName(title string) string {
	name := "Week 1 - " + title
	// Discord limits channel names to 100 characters.
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	return name
}

// ThreadMessage returns the opening message of a discussion thread.
func ThreadMessage(title, assignment string) string {
	return fmt.Sprintf("Week 1\nBook: %s\nSection: %s\nHappy Reading 📖", title, assignment)
}

// OpenDiscussionThread starts a public thread in channelID for the book
// and posts the opening message. It returns the thread ID.
func (m *Messenger) OpenDiscussionThread(ctx context.Context, channelID, title, assignment string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, config.DiscordBackgroundRequest)
	defer cancel()

	thread, err := m.session.ThreadStartComplex(channelID, &discordgo.ThreadStart{
		Name: ThreadName(title),
		Type: discordgo.ChannelTypeGuildPublicThread,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("start thread: %w", err)
	}

	if _, err := m.session.ChannelMessageSend(thread.ID, ThreadMessage(title, assignment), discordgo.WithContext(ctx)); err != nil {
		return thread.ID, fmt.Errorf("post thread message: %w", err)
	}
	return thread.ID, nil
}

// Post sends content to channelID.
func (m *Messenger) Post(ctx context.Context, channelID, content string) error {
	ctx, cancel := context.WithTimeout(ctx, config.DiscordBackgroundRequest)
	defer cancel()

	if _, err := m.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}
