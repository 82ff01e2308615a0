// Package discord wraps the Discord REST calls the bot makes outside the
// interaction response: scheduled events, discussion threads, channel
// messages and command registration.
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of *discordgo.Session used by the bot.
type Session interface {
	GuildScheduledEventCreate(guildID string, params *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventEdit(guildID, eventID string, params *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventDelete(guildID, eventID string, options ...discordgo.RequestOption) error
	ThreadStartComplex(channelID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
}

// DiscordSession adapts *discordgo.Session to Session.
type DiscordSession struct {
	session *discordgo.Session
}

// NewSession creates a REST-only session for a bot token. No gateway
// connection is opened.
func NewSession(botToken string) (*DiscordSession, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	s.ShouldRetryOnRateLimit = false
	return &DiscordSession{session: s}, nil
}

// GuildScheduledEventCreate creates a scheduled event for a guild.
func (d *DiscordSession) GuildScheduledEventCreate(guildID string, params *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	return d.session.GuildScheduledEventCreate(guildID, params, options...)
}

// GuildScheduledEventEdit edits a scheduled event.
func (d *DiscordSession) GuildScheduledEventEdit(guildID, eventID string, params *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	return d.session.GuildScheduledEventEdit(guildID, eventID, params, options...)
}

// GuildScheduledEventDelete deletes a scheduled event.
func (d *DiscordSession) GuildScheduledEventDelete(guildID, eventID string, options ...discordgo.RequestOption) error {
	return d.session.GuildScheduledEventDelete(guildID, eventID, options...)
}

// ThreadStartComplex starts a new thread in a channel.
func (d *DiscordSession) ThreadStartComplex(channelID string, data *discordgo.ThreadStart, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return d.session.ThreadStartComplex(channelID, data, options...)
}

// ChannelMessageSend sends a message to a channel.
func (d *DiscordSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return d.session.ChannelMessageSend(channelID, content, options...)
}

// ApplicationCommandBulkOverwrite replaces the application's commands.
// An empty guildID targets global commands.
func (d *DiscordSession) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	return d.session.ApplicationCommandBulkOverwrite(appID, guildID, commands, options...)
}

var _ Session = (*DiscordSession)(nil)
