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

// maxSlowmode is the platform ceiling for a channel's rate limit per user.
const maxSlowmode = 6 * time.Hour

type SlowmodeCommand struct{}

func (c *SlowmodeCommand) Name() string        { return "slowmode" }
func (c *SlowmodeCommand) Description() string { return "Set or clear a channel's slowmode" }
func (c *SlowmodeCommand) Category() string    { return "Moderation" }
func (c *SlowmodeCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *SlowmodeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Set a per-user message interval",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "interval",
						Description: "Interval between messages: 30m, 2h (max 6h)",
						Required:    true,
					},
					channelOption,
					reasonOption(false),
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Clear the channel's slowmode",
				Options:     []*discordgo.ApplicationCommandOption{channelOption, reasonOption(false)},
			},
		},
	}
}

func (c *SlowmodeCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	channelID := targetChannel(s, event, opts)
	reason := optionReason(opts)

	entry := ledger.Entry{
		ModeratorID: event.Member.User.ID,
	}
	var seconds int
	var verb string

	switch command.Subcommand(event) {
	case "enable":
		token := opts["interval"].StringValue()
		ms, ok := duration.Parse(token)
		if !ok {
			return command.RespondEphemeral(s, event,
				"Invalid interval. Use a number followed by m, h, d or w — like `30m`.")
		}
		if ms == 0 {
			return command.RespondEphemeral(s, event,
				"A zero interval means no slowmode. Use `/slowmode disable` instead.")
		}
		if !duration.Within(ms, maxSlowmode) {
			return command.RespondEphemeral(s, event, "Slowmode intervals can be at most 6 hours.")
		}
		seconds = int(ms / 1000)
		verb = "Slowmode"
		entry.Type = moderation.ActionSlowmodeOn
		entry.Duration = token

	case "disable":
		seconds = 0
		verb = "Slowmode clear"
		entry.Type = moderation.ActionSlowmodeOff

	default:
		return command.RespondEphemeral(s, event, "Unknown subcommand.")
	}

	if err := deps.Exec.Slowmode(channelID, seconds); err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("%s failed: %v", verb, err))
	}

	entry.Reason = fmt.Sprintf("<#%s> — %s", channelID, reason)
	action, err := deps.Ledger.Log(entry)
	if err != nil {
		return reportUnlogged(slash, verb, err)
	}

	return command.RespondEmbed(s, event, caseEmbed(action))
}

func init() {
	register(&SlowmodeCommand{})
}
