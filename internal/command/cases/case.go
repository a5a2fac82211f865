package cases

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/moderation"
)

type CaseCommand struct{}

func (c *CaseCommand) Name() string        { return "case" }
func (c *CaseCommand) Description() string { return "View a case or edit its reason" }
func (c *CaseCommand) Category() string    { return "Cases" }
func (c *CaseCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *CaseCommand) SlashDefinition() *discordgo.ApplicationCommand {
	caseIDOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "case_id",
		Description: "Case id, like 0042",
		Required:    true,
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "view",
				Description: "Show one case record",
				Options:     []*discordgo.ApplicationCommandOption{caseIDOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reason",
				Description: "Rewrite a case's reason",
				Options: []*discordgo.ApplicationCommandOption{
					caseIDOption,
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "reason",
						Description: "New reason",
						Required:    true,
					},
				},
			},
		},
	}
}

func (c *CaseCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps
	opts := command.Options(event)
	caseID := opts["case_id"].StringValue()

	switch command.Subcommand(event) {
	case "view":
		action, ok, err := deps.Ledger.Case(caseID)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read case: %v", err))
		}
		if !ok {
			return command.RespondEphemeral(s, event, fmt.Sprintf("No case with id `%s`.", caseID))
		}
		return command.RespondEmbed(s, event, caseDetailEmbed(action))

	case "reason":
		reason := opts["reason"].StringValue()
		ok, err := deps.Ledger.UpdateReason(caseID, reason)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to update case: %v", err))
		}
		if !ok {
			return command.RespondEphemeral(s, event, fmt.Sprintf("No case with id `%s`.", caseID))
		}
		return command.RespondEphemeral(s, event, fmt.Sprintf("Reason for case `%s` updated.", caseID))

	default:
		return command.RespondEphemeral(s, event, "Unknown subcommand.")
	}
}

func caseDetailEmbed(a moderation.Action) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s • Case %s", a.Type.Label(), a.CaseID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moderator", Value: "<@" + a.ModeratorID + ">", Inline: true},
			{Name: "When", Value: a.Timestamp.Format("2006-01-02 15:04 MST"), Inline: true},
		},
		Description: a.Reason,
	}
	if a.UserID != "" {
		embed.Fields = append([]*discordgo.MessageEmbedField{
			{Name: "User", Value: "<@" + a.UserID + ">", Inline: true},
		}, embed.Fields...)
	}
	if a.Duration != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: a.Duration, Inline: true,
		})
	}
	return embed
}

func init() {
	register(&CaseCommand{})
}
