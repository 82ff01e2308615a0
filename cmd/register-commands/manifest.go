package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/yaml.v3"
)

// manifestCommand is one slash command in commands.yaml.
type manifestCommand struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	Options     []manifestOption `yaml:"options"`
}

type manifestOption struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`
	Required    bool   `yaml:"required"`
}

var optionTypes = map[string]discordgo.ApplicationCommandOptionType{
	"string":  discordgo.ApplicationCommandOptionString,
	"integer": discordgo.ApplicationCommandOptionInteger,
	"boolean": discordgo.ApplicationCommandOptionBoolean,
	"user":    discordgo.ApplicationCommandOptionUser,
	"channel": discordgo.ApplicationCommandOptionChannel,
	"role":    discordgo.ApplicationCommandOptionRole,
}

// Discord limits on command definitions.
const (
	maxNameLength        = 32
	maxDescriptionLength = 100
	maxOptions           = 25
)

// parseManifest decodes commands.yaml into application commands.
func parseManifest(r io.Reader) ([]*discordgo.ApplicationCommand, error) {
	var manifest []manifestCommand
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("manifest is empty")
		}
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if len(manifest) == 0 {
		return nil, errors.New("manifest is empty")
	}

	seen := make(map[string]bool, len(manifest))
	cmds := make([]*discordgo.ApplicationCommand, 0, len(manifest))
	for _, mc := range manifest {
		if err := validateName("command", mc.Name, mc.Description); err != nil {
			return nil, err
		}
		if seen[mc.Name] {
			return nil, fmt.Errorf("command %q defined twice", mc.Name)
		}
		seen[mc.Name] = true
		if len(mc.Options) > maxOptions {
			return nil, fmt.Errorf("command %q: at most %d options", mc.Name, maxOptions)
		}

		cmd := &discordgo.ApplicationCommand{
			Name:        mc.Name,
			Description: mc.Description,
			Type:        discordgo.ChatApplicationCommand,
		}
		for _, mo := range mc.Options {
			if err := validateName("option", mo.Name, mo.Description); err != nil {
				return nil, fmt.Errorf("command %q: %w", mc.Name, err)
			}
			typ, ok := optionTypes[strings.ToLower(mo.Type)]
			if !ok {
				return nil, fmt.Errorf("command %q option %q: unknown type %q", mc.Name, mo.Name, mo.Type)
			}
			cmd.Options = append(cmd.Options, &discordgo.ApplicationCommandOption{
				Name:        mo.Name,
				Description: mo.Description,
				Type:        typ,
				Required:    mo.Required,
			})
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

func validateName(kind, name, description string) error {
	switch {
	case name == "":
		return fmt.Errorf("%s name is required", kind)
	case len(name) > maxNameLength:
		return fmt.Errorf("%s %q: name longer than %d characters", kind, name, maxNameLength)
	case name != strings.ToLower(name):
		return fmt.Errorf("%s %q: name must be lowercase", kind, name)
	case description == "":
		return fmt.Errorf("%s %q: description is required", kind, name)
	case len([]rune(description)) > maxDescriptionLength:
		return fmt.Errorf("%s %q: description longer than %d characters", kind, name, maxDescriptionLength)
	}
	return nil
}
