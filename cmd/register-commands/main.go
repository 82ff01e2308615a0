// Package main registers the bot's slash commands with Discord from
// commands.yaml. Registration overwrites the full command set, so commands
// removed from the manifest disappear from Discord.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/FlockCS/BookClub/internal/config"
	"github.com/FlockCS/BookClub/internal/discord"
	"github.com/FlockCS/BookClub/internal/logger"
)

// CLI flags
var (
	manifestFlag = flag.String("manifest", "", "Path to the command manifest (default: $BOOKCLUB_COMMANDS_FILE or commands.yaml)")
	guildFlag    = flag.String("guild", "", "Register to one guild instead of globally (default: $BOOKCLUB_DISCORD_DEV_GUILD_ID)")
	dryRunFlag   = flag.Bool("dry-run", false, "Validate the manifest without calling Discord")
)

const registerTimeout = 30 * time.Second

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.RegisterMode)
	if err != nil && !*dryRunFlag {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = &config.Config{LogLevel: "info", CommandsFile: "commands.yaml"}
	}

	log := logger.New(cfg.LogLevel)

	path := *manifestFlag
	if path == "" {
		path = cfg.CommandsFile
	}
	cmds, err := loadManifest(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Error("Invalid command manifest")
		os.Exit(1)
	}
	log.WithField("path", path).WithField("commands", len(cmds)).Info("Manifest loaded")

	if *dryRunFlag {
		for _, c := range cmds {
			fmt.Printf("✅ /%s (%d options)\n", c.Name, len(c.Options))
		}
		return
	}

	guildID := *guildFlag
	if guildID == "" {
		guildID = cfg.DiscordDevGuildID
	}

	session, err := discord.NewSession(cfg.DiscordBotToken)
	if err != nil {
		log.WithError(err).Error("Failed to create Discord session")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), registerTimeout)
	defer cancel()

	registered, err := register(ctx, session, cfg.DiscordAppID, guildID, cmds)
	if err != nil {
		log.WithError(err).WithField("guild_id", guildID).Error("Command registration failed")
		os.Exit(1)
	}

	scope := "globally"
	if guildID != "" {
		scope = "to guild " + guildID
	}
	for _, c := range registered {
		fmt.Printf("✅ /%s registered (id %s)\n", c.Name, c.ID)
	}
	fmt.Printf("\n%d commands registered %s\n", len(registered), scope)
}

func loadManifest(path string) ([]*discordgo.ApplicationCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return parseManifest(f)
}

// register overwrites the application's commands. An empty guildID
// registers global commands.
func register(ctx context.Context, session discord.Session, appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	registered, err := session.ApplicationCommandBulkOverwrite(appID, guildID, cmds, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("bulk overwrite: %w", err)
	}
	return registered, nil
}
