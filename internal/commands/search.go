package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/books"
	domerrors "github.com/FlockCS/BookClub/internal/errors"
	"github.com/FlockCS/BookClub/internal/interaction"
)

// Option names of /search.
const (
	TitleOption     = "title"
	AuthorOption    = "author"
	PublisherOption = "publisher"
	ISBNOption      = "isbn"
)

const (
	msgEmptyQuery        = "❗Please provide at least one search option (e.g. Title, Author, Publisher, or ISBN)."
	msgSearchUnavailable = "❗ Book search is unavailable right now. Please try again later."
	noResultsFormat      = "No books found for %s."
)

var (
	errEmptyQuery = domerrors.NewUserError(domerrors.KindValidation, domerrors.ErrEmptyQuery, msgEmptyQuery)
	errSearchDown = domerrors.NewUserError(domerrors.KindCollaborator, domerrors.ErrSearchUnavailable, msgSearchUnavailable)
)

// Search queries the book collaborator, replaces the guild's cached result
// list and renders one embed and one numbered button per result.
func (h *Handler) Search(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error) {
	q := books.Query{
		Title:     i.Option(TitleOption),
		Author:    i.Option(AuthorOption),
		Publisher: i.Option(PublisherOption),
		ISBN:      i.Option(ISBNOption),
	}
	if q.IsEmpty() {
		return nil, errEmptyQuery
	}
	if h.searcher == nil {
		return nil, errSearchDown
	}

	results, err := h.searcher.SearchBooks(ctx, q, books.MaxResults)
	if err != nil {
		if errors.Is(err, domerrors.ErrEmptyQuery) {
			return nil, errEmptyQuery
		}
		h.logger.WithGuild(i.GuildID).WithError(err).WarnContext(ctx, "Book search failed")
		return nil, errSearchDown.WithCause(err)
	}
	if len(results) == 0 {
		return interaction.Ephemeral(fmt.Sprintf(noResultsFormat, q.String())), nil
	}

	if err := h.store.SaveSearchResults(ctx, i.GuildID, results); err != nil {
		return nil, err
	}
	h.logger.WithGuild(i.GuildID).WithField("results", len(results)).DebugContext(ctx, "Search results cached")

	embeds := make([]*discordgo.MessageEmbed, 0, len(results))
	buttons := make([]discordgo.Button, 0, len(results))
	for idx, c := range results {
		embed := &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("%d) %s", idx+1, c.Title),
			URL:         c.PreviewLink,
			Description: fmt.Sprintf("By: %s\nISBN: %s", books.JoinAuthors(c.Authors), c.ISBN),
		}
		if c.ThumbnailURL != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: c.ThumbnailURL}
		}
		if c.Description != "" {
			embed.Footer = &discordgo.MessageEmbedFooter{Text: c.Description}
		}
		embeds = append(embeds, embed)
		buttons = append(buttons, interaction.Button(strconv.Itoa(idx+1),
			interaction.SelectBookPrefix+strconv.Itoa(idx), discordgo.PrimaryButton))
	}

	return interaction.Embeds(embeds, interaction.ButtonRows(buttons...)...), nil
}
