package mod

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
)

var channelOption = &discordgo.ApplicationCommandOption{
	Type:        discordgo.ApplicationCommandOptionChannel,
	Name:        "channel",
	Description: "Target channel (defaults to the current one)",
	ChannelTypes: []discordgo.ChannelType{
		discordgo.ChannelTypeGuildText,
	},
}

// targetChannel resolves the optional channel option, falling back to the
// channel the command was invoked in.
func targetChannel(s *discordgo.Session, event *discordgo.InteractionCreate,
	opts map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if o, ok := opts["channel"]; ok {
		return o.ChannelValue(s).ID
	}
	return event.ChannelID
}

type LockCommand struct{}

func (c *LockCommand) Name() string        { return "lock" }
func (c *LockCommand) Description() string { return "Lock a channel for @everyone" }
func (c *LockCommand) Category() string    { return "Moderation" }
func (c *LockCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *LockCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{channelOption, reasonOption(false)},
	}
}

func (c *LockCommand) Run(ctx interface{}) error {
	return runChannelToggle(ctx, true)
}

type UnlockCommand struct{}

func (c *UnlockCommand) Name() string        { return "unlock" }
func (c *UnlockCommand) Description() string { return "Unlock a previously locked channel" }
func (c *UnlockCommand) Category() string    { return "Moderation" }
func (c *UnlockCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *UnlockCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{channelOption, reasonOption(false)},
	}
}

func (c *UnlockCommand) Run(ctx interface{}) error {
	return runChannelToggle(ctx, false)
}

// runChannelToggle is the shared body of lock and unlock. Channel-scoped
// cases carry no subject user; the channel id goes into the reason line.
func runChannelToggle(ctx interface{}, lock bool) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	channelID := targetChannel(s, event, opts)
	reason := optionReason(opts)

	verb, actionType := "Unlock", moderation.ActionUnlock
	if lock {
		verb, actionType = "Lock", moderation.ActionLock
	}

	if err := deps.Exec.LockChannel(event.GuildID, channelID, lock); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("%s failed: %v", verb, err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        actionType,
		ModeratorID: event.Member.User.ID,
		Reason:      fmt.Sprintf("<#%s> — %s", channelID, reason),
	})
	if err != nil {
		return reportUnlogged(slash, verb, err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

func init() {
	register(&LockCommand{})
	register(&UnlockCommand{})
}
