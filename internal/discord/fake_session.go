package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// FakeSession is a programmable Session for tests. Each method calls its
// Func field when set and otherwise returns a canned success.
type FakeSession struct {
	mu    sync.Mutex
	trace []string

	GuildScheduledEventCreateFunc       func(guildID string, params *discordgo.GuildScheduledEventParams) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventEditFunc         func(guildID, eventID string, params *discordgo.GuildScheduledEventParams) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventDeleteFunc       func(guildID, eventID string) error
	ThreadStartComplexFunc              func(channelID string, data *discordgo.ThreadStart) (*discordgo.Channel, error)
	ChannelMessageSendFunc              func(channelID, content string) (*discordgo.Message, error)
	ApplicationCommandBulkOverwriteFunc func(appID, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

// NewFakeSession returns a FakeSession with no overrides.
func NewFakeSession() *FakeSession {
	return &FakeSession{}
}

func (f *FakeSession) record(method string) {
	f.mu.Lock()
	f.trace = append(f.trace, method)
	f.mu.Unlock()
}

// Trace returns the names of the methods called so far, in order.
func (f *FakeSession) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// Calls returns how many times method was called.
func (f *FakeSession) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.trace {
		if m == method {
			n++
		}
	}
	return n
}

func (f *FakeSession) GuildScheduledEventCreate(guildID string, params *discordgo.GuildScheduledEventParams, _ ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	f.record("GuildScheduledEventCreate")
	if f.GuildScheduledEventCreateFunc != nil {
		return f.GuildScheduledEventCreateFunc(guildID, params)
	}
	return &discordgo.GuildScheduledEvent{ID: "fake-event-123", GuildID: guildID, Name: params.Name}, nil
}

func (f *FakeSession) GuildScheduledEventEdit(guildID, eventID string, params *discordgo.GuildScheduledEventParams, _ ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	f.record("GuildScheduledEventEdit")
	if f.GuildScheduledEventEditFunc != nil {
		return f.GuildScheduledEventEditFunc(guildID, eventID, params)
	}
	return &discordgo.GuildScheduledEvent{ID: eventID, GuildID: guildID}, nil
}

func (f *FakeSession) GuildScheduledEventDelete(guildID, eventID string, _ ...discordgo.RequestOption) error {
	f.record("GuildScheduledEventDelete")
	if f.GuildScheduledEventDeleteFunc != nil {
		return f.GuildScheduledEventDeleteFunc(guildID, eventID)
	}
	return nil
}

func (f *FakeSession) ThreadStartComplex(channelID string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.record("ThreadStartComplex")
	if f.ThreadStartComplexFunc != nil {
		return f.ThreadStartComplexFunc(channelID, data)
	}
	return &discordgo.Channel{ID: "fake-thread-456", ParentID: channelID, Name: data.Name, Type: data.Type}, nil
}

func (f *FakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.record("ChannelMessageSend")
	if f.ChannelMessageSendFunc != nil {
		return f.ChannelMessageSendFunc(channelID, content)
	}
	return &discordgo.Message{ID: "fake-message-789", ChannelID: channelID, Content: content}, nil
}

func (f *FakeSession) ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	f.record("ApplicationCommandBulkOverwrite")
	if f.ApplicationCommandBulkOverwriteFunc != nil {
		return f.ApplicationCommandBulkOverwriteFunc(appID, guildID, commands)
	}
	return commands, nil
}

var _ Session = (*FakeSession)(nil)
