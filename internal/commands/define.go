package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/interaction"
	"github.com/FlockCS/BookClub/internal/stringutil"
)

// WordOption is the option name of /define.
const WordOption = "word"

const (
	defineNotFoundFormat = "❗ Could not find definitions for '%s'."
	defineEmbedColor     = 0x5865F2
	maxEmbedFieldValue   = 1024
)

// Define looks up a word and renders one embed field per part of speech.
func (h *Handler) Define(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	word := strings.TrimSpace(i.Option(WordOption))
	notFound := domerrors.NewUserError(domerrors.KindCollaborator, domerrors.ErrNotFound,
		fmt.Sprintf(defineNotFoundFormat, word))

	if word == "" || h.definer == nil {
		return nil, notFound
	}

	meanings, err := h.definer.DefineWord(ctx, word)
	if err != nil {
		if !errors.Is(err, domerrors.ErrNotFound) {
			h.logger.WithField("word", word).WithError(err).WarnContext(ctx, "Dictionary lookup failed")
		}
		return nil, notFound.WithCause(err)
	}

	fields := make([]*discordgo.MessageEmbedField, 0, len(meanings))
	for _, m := range meanings {
		var b strings.Builder
		for n, def := range m.Definitions {
			if n > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d. %s", n+1, def)
		}
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  capitalize(m.PartOfSpeech),
			Value: stringutil.Fit(b.String(), maxEmbedFieldValue),
		})
	}

	embed := &discordgo.MessageEmbed{
		Title:  "📖 " + word,
		Color:  defineEmbedColor,
		Fields: fields,
	}
	return interaction.Embeds([]*discordgo.MessageEmbed{embed}), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
