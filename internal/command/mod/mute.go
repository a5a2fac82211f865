package mod

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
	"server-warden/pkg/duration"
)

// maxMuteDuration is the platform ceiling for communication timeouts.
const maxMuteDuration = 28 * 24 * time.Hour

type MuteCommand struct{}

func (c *MuteCommand) Name() string        { return "mute" }
func (c *MuteCommand) Description() string { return "Time a user out" }
func (c *MuteCommand) Category() string    { return "Moderation" }
func (c *MuteCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *MuteCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			userOption,
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "duration",
				Description: "How long: 30m, 2h, 1d, 1w (max 28d)",
				Required:    true,
			},
			reasonOption(false),
		},
	}
}

func (c *MuteCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)
	token := opts["duration"].StringValue()
	reason := optionReason(opts)

	ms, ok := duration.Parse(token)
	if !ok {
		return command.RespondEphemeral(s, event,
			"Invalid duration. Use a number followed by m, h, d or w — like `30m` or `2h`.")
	}
	if ms == 0 {
		return command.RespondEphemeral(s, event, "A zero-length mute doesn't mute anyone.")
	}
	if !duration.Within(ms, maxMuteDuration) {
		return command.RespondEphemeral(s, event, "Mutes can last at most 28 days.")
	}

	until := time.Now().Add(duration.Millis(ms))
	if err := deps.Exec.Timeout(event.GuildID, target.ID, &until); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Mute failed: %v", err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionMute,
		UserID:      target.ID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
		Duration:    token,
	})
	if err != nil {
		return reportUnlogged(slash, "Mute", err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

type UnmuteCommand struct{}

func (c *UnmuteCommand) Name() string        { return "unmute" }
func (c *UnmuteCommand) Description() string { return "Clear a user's timeout" }
func (c *UnmuteCommand) Category() string    { return "Moderation" }
func (c *UnmuteCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *UnmuteCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options:     []*discordgo.ApplicationCommandOption{userOption, reasonOption(false)},
	}
}

func (c *UnmuteCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)
	reason := optionReason(opts)

	if err := deps.Exec.Timeout(event.GuildID, target.ID, nil); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Unmute failed: %v", err))
	}

	action, err := deps.Ledger.Log(ledger.Entry{
		Type:        moderation.ActionUnmute,
		UserID:      target.ID,
		ModeratorID: event.Member.User.ID,
		Reason:      reason,
	})
	if err != nil {
		return reportUnlogged(slash, "Unmute", err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

func init() {
	register(&MuteCommand{})
	register(&UnmuteCommand{})
}
