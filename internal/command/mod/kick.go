package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
)

type KickCommand struct{}

func (c *KickCommand) Name() string        { return "kick" }
func (c *KickCommand) Description() string { return "Kick a user from the server" }
func (c *KickCommand) Category() string    { return "Moderation" }
func (c *KickCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *KickCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{userOption, reasonOption(false)},
	}
}

func (c *KickCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)
	reason := optionReason(opts)

	if err := deps.Exec.Kick(event.GuildID, target.ID, reason); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Kick failed: %v", err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionKick,
		UserID:      target.ID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
	})
	if err != nil {
		return reportUnlogged(slash, "Kick", err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

func init() {
	register(&KickCommand{})
}
