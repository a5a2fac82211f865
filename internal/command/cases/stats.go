package cases

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
)

// statRows fixes the render order; maps iterate randomly and the table should
// not shuffle between invocations.
var statRows = []moderation.ActionType{
	moderation.ActionWarn,
	moderation.ActionMute,
	moderation.ActionUnmute,
	moderation.ActionBan,
	moderation.ActionUnban,
	moderation.ActionKick,
	moderation.ActionRolePersist,
	moderation.ActionLock,
	moderation.ActionUnlock,
	moderation.ActionSlowmodeOn,
	moderation.ActionSlowmodeOff,
	moderation.ActionTotal,
}

type StatsCommand struct{}

func (c *StatsCommand) Name() string        { return "modstats" }
func (c *StatsCommand) Description() string { return "Moderation action statistics" }
func (c *StatsCommand) Category() string    { return "Cases" }
func (c *StatsCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *StatsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "moderator",
				Description: "Limit to one moderator's actions",
			},
		},
	}
}

func (c *StatsCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)

	var stats ledger.Statistics
	title := "Moderation statistics"
	if o, ok := opts["moderator"]; ok {
		mod := o.UserValue(s)
		stats, err = deps.Ledger.ModeratorStatistics(mod.ID)
		title = fmt.Sprintf("Moderation statistics for %s", mod.Username)
	} else {
		stats, err = deps.Ledger.Statistics()
	}
	if err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to compute statistics: %v", err))
	}
	if len(stats) == 0 {
		return command.RespondEphemeral(s, event, "No recorded actions yet.")
	}

	return command.RespondEmbed(s, event, &discordgo.MessageEmbed{
		Title:       title,
		Description: renderStats(stats),
	})
}

// renderStats lays the windows out as a fixed-width code block so the columns
// line up in the Discord client.
func renderStats(stats ledger.Statistics) string {
	var b strings.Builder
	b.WriteString("```\n")
	fmt.Fprintf(&b, "%-18s %5s %6s %5s\n", "action", "7d", "30d", "all")
	for _, t := range statRows {
		counts, ok := stats[t]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%-18s %5d %6d %5d\n",
			string(t), counts.Last7, counts.Last30, counts.AllTime)
	}
	b.WriteString("```")
	return b.String()
}

func init() {
	register(&StatsCommand{})
}
