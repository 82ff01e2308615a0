package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/books"
	"github.com/FlockCS/BookClub/internal/interaction"
)

const msgNoCurrentBook = "📚 No current book has been set for this server. Use `/search` to pick one!"

// Current shows the guild's current book with Reschedule and Finish buttons.
func (h *Handler) Current(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	book, err := h.store.GetCurrentBook(ctx, i.GuildID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return interaction.Ephemeral(msgNoCurrentBook), nil
	}

	date := book.DiscussionDate
	if date == "" {
		date = "TBD"
	} else if book.DiscussionTime != "" {
		date += " at " + book.DiscussionTime
	}
	pages := book.ReadingAssignment
	if pages == "" {
		pages = "—"
	}
	isbn := book.ISBN
	if isbn == "" {
		isbn = "N/A"
	}

	embed := &discordgo.MessageEmbed{
		Title: book.Title,
		URL:   book.PreviewLink,
		Description: fmt.Sprintf("Author: %s\nISBN: %s\nDiscussion: %s\nPages / chapter: %s",
			books.JoinAuthors(book.Authors), isbn, date, pages),
	}
	if book.ThumbnailURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: book.ThumbnailURL}
	}

	return interaction.Embeds([]*discordgo.MessageEmbed{embed}, interaction.ButtonRows(
		interaction.Button("Reschedule", interaction.RescheduleBookID, discordgo.PrimaryButton),
		interaction.Button("Finish", interaction.FinishBookID, discordgo.PrimaryButton),
	)...), nil
}
