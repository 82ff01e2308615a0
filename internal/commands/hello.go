package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/interaction"
)

// EchoOption is the option name of /echo.
const EchoOption = "message"

var (
	greetings = []string{
		"Hello there!",
		"Hi!",
		"Good to see you!",
		"Greetings!",
		"Hey, how are you?",
		"Nice to meet you!",
		"Hello, friend!",
		"Hi, hope you’re doing well!",
	}
	emojis = []string{"👋", "😊", "🙌", "🌟", "🤗", "😄", "✨", "😎", "😁"}
)

// Hello greets the invoking member.
func (h *Handler) Hello(_ context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	greeting := greetings[h.intn(len(greetings))]
	emoji := emojis[h.intn(len(emojis))]
	return interaction.Message(fmt.Sprintf("%s %s <@%s>!", greeting, emoji, i.UserID)), nil
}

// Echo repeats the message option.
func (h *Handler) Echo(_ context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	text := i.Option(EchoOption)
	if text == "" {
		// Single-option command: accept whatever name the manifest used.
		text = i.FirstOption()
	}
	return interaction.Message("Echoing: " + text), nil
}
