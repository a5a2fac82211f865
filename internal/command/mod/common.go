// Package mod implements the moderation commands: ban, unban, kick, mute,
// unmute, warn and the channel-scoped lock and slowmode actions. Every
// command performs its platform side effect first and then writes a case to
// the ledger; a failed ledger write is reported to the moderator rather than
// swallowed, since the side effect has already happened.
package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/middleware"
	"server-warden/internal/moderation"
)

func register(cmd command.Command) {
	command.Register(command.Apply(cmd,
		middleware.WithPermissionGate(),
		middleware.WithGuildOnly(),
		middleware.WithCommandLog(),
	))
}

func slashContext(ctx interface{}) (*command.SlashContext, error) {
	slash, ok := ctx.(*command.SlashContext)
	if !ok {
		return nil, fmt.Errorf("wrong context type %T", ctx)
	}
	return slash, nil
}

func optionReason(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if o, ok := opts["reason"]; ok {
		return o.StringValue()
	}
	return moderation.DefaultReason
}

func caseEmbed(a moderation.Action) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s • Case %s", a.Type.Label(), a.CaseID),
		Description: a.Reason,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Moderator: " + a.ModeratorID},
	}
	if a.UserID != "" {
		embed.Description = fmt.Sprintf("<@%s> — %s", a.UserID, a.Reason)
	}
	if a.Duration != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: a.Duration, Inline: true,
		})
	}
	return embed
}

// reportUnlogged tells the moderator the platform action went through but the
// audit entry did not. This is the one failure that must never be silent.
func reportUnlogged(slash *command.SlashContext, what string, err error) error {
	slash.Deps.Log.Error().Err(err).Msg("case write failed after side effect")
	return command.RespondEphemeral(slash.Session, slash.Event,
		fmt.Sprintf("%s succeeded, but recording the case failed: %v", what, err))
}

var userOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionUser,
	Name:        "user",
	Description: "Target user",
	Required:    true,
}

func reasonOption(required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "reason",
		Description: "Reason for the action",
		Required:    required,
	}
}
