package interaction

import (
	"github.com/bwmarrin/discordgo"
)

// Discord limits used by the builders.
const (
	MaxModalTitle    = 45
	MaxButtonsPerRow = 5
	EphemeralFlag    = discordgo.MessageFlagsEphemeral
)

// Pong acknowledges a Ping.
func Pong() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong}
}

// Message is a public channel message.
func Message(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	}
}

// Ephemeral is a message only the invoking user sees.
func Ephemeral(content string) *discordgo.InteractionResponse {
	resp := Message(content)
	resp.Data.Flags = EphemeralFlag
	return resp
}

// Embeds is a public message of embeds with optional component rows.
func Embeds(embeds []*discordgo.MessageEmbed, rows ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: rows,
		},
	}
}

// WithComponents returns a message carrying content and component rows.
func WithComponents(content string, ephemeral bool, rows ...discordgo.MessageComponent) *discordgo.InteractionResponse {
	resp := Message(content)
	if ephemeral {
		resp.Data.Flags = EphemeralFlag
	}
	resp.Data.Components = rows
	return resp
}

// Modal shows a form. Each input is placed in its own row.
func Modal(customID, title string, inputs ...discordgo.TextInput) *discordgo.InteractionResponse {
	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{in}})
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	}
}

// Button returns a button with a custom ID.
func Button(label, customID string, style discordgo.ButtonStyle) discordgo.Button {
	return discordgo.Button{Label: label, CustomID: customID, Style: style}
}

// ButtonRows packs buttons into rows of at most five.
func ButtonRows(buttons ...discordgo.Button) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for start := 0; start < len(buttons); start += MaxButtonsPerRow {
		end := min(start+MaxButtonsPerRow, len(buttons))
		row := discordgo.ActionsRow{}
		for _, b := range buttons[start:end] {
			row.Components = append(row.Components, b)
		}
		rows = append(rows, row)
	}
	return rows
}

// IsEphemeral reports whether resp is an ephemeral message.
func IsEphemeral(resp *discordgo.InteractionResponse) bool {
	return resp != nil && resp.Data != nil && resp.Data.Flags&EphemeralFlag != 0
}
