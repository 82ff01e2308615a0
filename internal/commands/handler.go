// Package commands implements the slash commands: hello, echo, define,
// current, search and delete.
//
// Each command is an interaction.HandlerFunc. Handlers return a
// *errors.UserError for anything the member can fix or should be told
// about; the router turns those into ephemeral replies.
package commands

import (
	"context"
	"math/rand/v2"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/books"
	"github.com/FlockCS/BookClub/internal/dictionary"
	"github.com/FlockCS/BookClub/internal/interaction"
	"github.com/FlockCS/BookClub/internal/logger"
	"github.com/FlockCS/BookClub/internal/storage"
)

// Command names as registered with Discord.
const (
	CommandHello   = "hello"
	CommandEcho    = "echo"
	CommandDefine  = "define"
	CommandCurrent = "current"
	CommandSearch  = "search"
	CommandDelete  = "delete"
)

// BookSearcher finds candidate books.
type BookSearcher interface {
	SearchBooks(ctx context.Context, q books.Query, maxResults int) ([]storage.BookCandidate, error)
}

// Definer looks up word definitions.
type Definer interface {
	DefineWord(ctx context.Context, word string) ([]dictionary.Meaning, error)
}

// Store is the storage the commands read and write.
type Store interface {
	storage.SelectionRepository
	GetCurrentBook(ctx context.Context, guildID string) (*storage.CurrentBook, error)
}

// DeleteConfirmer produces the delete confirmation prompt.
type DeleteConfirmer interface {
	ConfirmDelete(ctx context.Context, i interaction.Interaction) (*discordgo.InteractionResponse, error)
}

// Config holds the command handlers' collaborators.
type Config struct {
	Searcher BookSearcher
	Definer  Definer
	Store    Store
	Workflow DeleteConfirmer
	Logger   *logger.Logger
	// Intn picks greeting and emoji indexes. Nil uses math/rand/v2.
	Intn func(n int) int
}

// Handler serves the slash commands.
type Handler struct {
	searcher BookSearcher
	definer  Definer
	store    Store
	workflow DeleteConfirmer
	logger   *logger.Logger
	intn     func(n int) int
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logger.New("error")
	}
	if cfg.Intn == nil {
		cfg.Intn = rand.IntN
	}
	return &Handler{
		searcher: cfg.Searcher,
		definer:  cfg.Definer,
		store:    cfg.Store,
		workflow: cfg.Workflow,
		logger:   cfg.Logger.WithModule("commands"),
		intn:     cfg.Intn,
	}
}

// Commands returns the handlers keyed by command name.
func (h *Handler) Commands() map[string]interaction.HandlerFunc {
	cmds := map[string]interaction.HandlerFunc{
		CommandHello:   h.Hello,
		CommandEcho:    h.Echo,
		CommandDefine:  h.Define,
		CommandCurrent: h.Current,
		CommandSearch:  h.Search,
	}
	if h.workflow != nil {
		cmds[CommandDelete] = h.workflow.ConfirmDelete
	}
	return cmds
}
