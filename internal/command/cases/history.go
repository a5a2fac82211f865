package cases

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/moderation"
)

// historyPageSize caps the embed at a readable length. Older cases are
// summarized by count rather than paginated.
const historyPageSize = 15

type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Description() string { return "Show a user's moderation history" }
func (c *HistoryCommand) Category() string    { return "Cases" }
func (c *HistoryCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.DefaultPolicy()
}

func (c *HistoryCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "User whose history to show",
				Required:    true,
			},
		},
	}
}

func (c *HistoryCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	opts := command.Options(event)
	target := opts["user"].UserValue(s)

	actions, err := deps.Ledger.UserCases(target.ID)
	if err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read history: %v", err))
	}
	if len(actions) == 0 {
		return command.RespondEphemeral(s, event, fmt.Sprintf("<@%s> has a clean record.", target.ID))
	}

	total := len(actions)
	overflow := 0
	if total > historyPageSize {
		overflow = total - historyPageSize
		actions = actions[total-historyPageSize:]
	}

	var lines []string
	for i := len(actions) - 1; i >= 0; i-- { // newest first
		a := actions[i]
		line := fmt.Sprintf("`%s` %s %s — %s",
			a.CaseID, a.Timestamp.Format("2006-01-02"), a.Type.Label(), a.Reason)
		lines = append(lines, line)
	}
	if overflow > 0 {
		lines = append(lines, fmt.Sprintf("… and %d older case(s)", overflow))
	}

	return command.RespondEmbed(s, event, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("History for %s (%d cases)", target.Username, total),
		Description: strings.Join(lines, "\n"),
	})
}

func init() {
	register(&HistoryCommand{})
}
