package mod

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
)

type WarnCommand struct{}

func (c *WarnCommand) Name() string        { return "warn" }
func (c *WarnCommand) Description() string { return "Warn a user" }
func (c *WarnCommand) Category() string    { return "Moderation" }
func (c *WarnCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *WarnCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{userOption, reasonOption(true)},
	}
}

func (c *WarnCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)
	reason := optionReason(opts)

	// Warnings have no platform side effect; the case record is the action.
	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionWarn,
		UserID:      target.ID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrWarningMirror) {
			// The case is on disk; only the warning counter missed it.
			return command.RespondEphemeral(s, event, fmt.Sprintf(
				"Recorded as case %s, but the warning count could not be updated: %v",
				action.CaseID, err))
		}
		return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to record the warning: %v", err))
	}

	warns, err := deps.Ledger.Warnings(target.ID)
	if err != nil {
		deps.Log.Warn().Err(err).Msg("failed to count warnings")
	}

	embed := caseEmbed(action)
	if len(warns) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Active warnings", Value: fmt.Sprintf("%d", len(warns)), Inline: true,
		})
	}
	return command.RespondEmbed(s, event, embed)
}

type WarningsCommand struct{}

func (c *WarningsCommand) Name() string        { return "warnings" }
func (c *WarningsCommand) Description() string { return "List or delete a user's warnings" }
func (c *WarningsCommand) Category() string    { return "Moderation" }
func (c *WarningsCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *WarningsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show a user's active warnings",
				Options:     []*discordgo.ApplicationCommandOption{userOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "delete",
				Description: "Delete a single warning by case id (the case record stays)",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "case_id",
						Description: "Case id of the warning",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *WarningsCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps
	opts := command.Options(event)

	switch command.Subcommand(event) {
	case "list":
		target := opts["user"].UserValue(s)
		warns, err := deps.Ledger.Warnings(target.ID)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read warnings: %v", err))
		}
		if len(warns) == 0 {
			return command.RespondEphemeral(s, event, fmt.Sprintf("<@%s> has no active warnings.", target.ID))
		}

		var lines []string
		for _, w := range warns {
			lines = append(lines, fmt.Sprintf("`%s` %s — %s",
				w.CaseID, w.Timestamp.Format("2006-01-02"), w.Reason))
		}
		return command.RespondEmbed(s, event, &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("Warnings for %s (%d)", target.Username, len(warns)),
			Description: strings.Join(lines, "\n"),
		})

	case "delete":
		caseID := opts["case_id"].StringValue()
		ok, err := deps.Ledger.DeleteWarning(caseID)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to delete warning: %v", err))
		}
		if !ok {
			return command.RespondEphemeral(s, event, fmt.Sprintf("No warning with case id `%s`.", caseID))
		}
		return command.RespondEphemeral(s, event,
			fmt.Sprintf("Warning `%s` deleted. The case record itself is kept.", caseID))

	default:
		return command.RespondEphemeral(s, event, "Unknown subcommand.")
	}
}

func init() {
	register(&WarnCommand{})
	register(&WarningsCommand{})
}
