package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
)

type BanCommand struct{}

func (c *BanCommand) Name() string        { return "ban" }
func (c *BanCommand) Description() string { return "Ban a user from the server" }
func (c *BanCommand) Category() string    { return "Moderation" }
func (c *BanCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *BanCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{userOption, reasonOption(false)},
	}
}

func (c *BanCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)
	reason := optionReason(opts)

	if err := deps.Exec.Ban(event.GuildID, target.ID, reason); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Ban failed: %v", err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionBan,
		UserID:      target.ID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
	})
	if err != nil {
		return reportUnlogged(slash, "Ban", err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

type UnbanCommand struct{}

func (c *UnbanCommand) Name() string        { return "unban" }
func (c *UnbanCommand) Description() string { return "Lift a user's ban" }
func (c *UnbanCommand) Category() string    { return "Moderation" }
func (c *UnbanCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *UnbanCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "user_id",
				Description: "ID of the banned user",
				Required:    true,
			},
			reasonOption(false),
		},
	}
}

func (c *UnbanCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	targetID := opts["user_id"].StringValue()
	reason := optionReason(opts)

	if err := deps.Exec.Unban(event.GuildID, targetID); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Unban failed: %v", err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionUnban,
		UserID:      targetID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
	})
	if err != nil {
		return reportUnlogged(slash, "Unban", err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

func init() {
	register(&BanCommand{})
	register(&UnbanCommand{})
}
