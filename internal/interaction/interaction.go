// Package interaction normalizes Discord interactions, routes them to the
// command and workflow handlers, and builds interaction responses.
package interaction

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/bwmarrin/discordgo"
)

// Kind is the normalized interaction type.
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindCommand
	KindComponentClick
	KindFormSubmit
)

// String returns the metric label of k.
func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindCommand:
		return "command"
	case KindComponentClick:
		return "component"
	case KindFormSubmit:
		return "form"
	default:
		return "unknown"
	}
}

// Interaction is the platform-independent view of one inbound interaction.
type Interaction struct {
	ID          string
	Kind        Kind
	GuildID     string
	ChannelID   string
	UserID      string
	RoleIDs     []string
	CommandName string
	Options     map[string]string // slash command options by name
	OptionOrder []string          // option names in the order Discord sent them
	CustomID    string
	Values      map[string]string // form text inputs by custom ID
}

// Option returns the named command option, or "".
func (i Interaction) Option(name string) string {
	return i.Options[name]
}

// FirstOption returns the first provided command option in the order
// Discord sent them. Without an order it falls back to the lowest name.
func (i Interaction) FirstOption() string {
	for _, name := range i.OptionOrder {
		if v, ok := i.Options[name]; ok {
			return v
		}
	}
	if len(i.Options) == 0 {
		return ""
	}
	names := slices.Sorted(maps.Keys(i.Options))
	return i.Options[names[0]]
}

// Value returns the named form input, or "".
func (i Interaction) Value(customID string) string {
	return i.Values[customID]
}

// HasRole reports whether the invoking member holds roleID.
func (i Interaction) HasRole(roleID string) bool {
	return roleID != "" && slices.Contains(i.RoleIDs, roleID)
}

// ErrNoData is returned by FromDiscord when a typed interaction carries no data.
var ErrNoData = errors.New("interaction has no data")

// FromDiscord normalizes a decoded discordgo interaction. Unsupported types
// (autocomplete) map to KindUnknown.
func FromDiscord(di *discordgo.Interaction) (Interaction, error) {
	if di == nil {
		return Interaction{}, ErrNoData
	}

	i := Interaction{
		ID:        di.ID,
		GuildID:   di.GuildID,
		ChannelID: di.ChannelID,
	}
	switch {
	case di.Member != nil:
		i.RoleIDs = di.Member.Roles
		if di.Member.User != nil {
			i.UserID = di.Member.User.ID
		}
	case di.User != nil:
		i.UserID = di.User.ID
	}

	switch di.Type {
	case discordgo.InteractionPing:
		i.Kind = KindPing

	case discordgo.InteractionApplicationCommand:
		data, ok := di.Data.(discordgo.ApplicationCommandInteractionData)
		if !ok {
			return Interaction{}, fmt.Errorf("command: %w", ErrNoData)
		}
		i.Kind = KindCommand
		i.CommandName = data.Name
		i.Options, i.OptionOrder = flattenOptions(data.Options)

	case discordgo.InteractionMessageComponent:
		data, ok := di.Data.(discordgo.MessageComponentInteractionData)
		if !ok {
			return Interaction{}, fmt.Errorf("component: %w", ErrNoData)
		}
		i.Kind = KindComponentClick
		i.CustomID = data.CustomID

	case discordgo.InteractionModalSubmit:
		data, ok := di.Data.(discordgo.ModalSubmitInteractionData)
		if !ok {
			return Interaction{}, fmt.Errorf("modal: %w", ErrNoData)
		}
		i.Kind = KindFormSubmit
		i.CustomID = data.CustomID
		i.Values = make(map[string]string)
		collectInputs(data.Components, i.Values)

	default:
		i.Kind = KindUnknown
	}
	return i, nil
}

func flattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) (map[string]string, []string) {
	out := make(map[string]string, len(opts))
	order := make([]string, 0, len(opts))
	for _, o := range opts {
		if o == nil || o.Value == nil {
			continue
		}
		order = append(order, o.Name)
		switch v := o.Value.(type) {
		case string:
			out[o.Name] = v
		case float64:
			out[o.Name] = fmt.Sprintf("%g", v)
		default:
			out[o.Name] = fmt.Sprint(v)
		}
	}
	return out, order
}

func collectInputs(components []discordgo.MessageComponent, out map[string]string) {
	for _, c := range components {
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			collectInputs(v.Components, out)
		case discordgo.ActionsRow:
			collectInputs(v.Components, out)
		case *discordgo.TextInput:
			out[v.CustomID] = v.Value
		case discordgo.TextInput:
			out[v.CustomID] = v.Value
		}
	}
}
