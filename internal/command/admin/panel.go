package admin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/moderation"
)

type PanelCommand struct{}

func (c *PanelCommand) Name() string        { return "panel" }
func (c *PanelCommand) Description() string { return "Overview of every command's policy" }
func (c *PanelCommand) Category() string    { return "Admin" }
func (c *PanelCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.CommandPolicy{Enabled: true, OwnerOnly: true}
}

func (c *PanelCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *PanelCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps

	cfg, err := deps.Storage.PermissionConfig()
	if err != nil {
		return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read config: %v", err))
	}

	byCategory := map[string][]string{}
	for _, cmd := range command.All() {
		root := command.Root(cmd)
		policy, ok := cfg.Commands[root.Name()]
		if !ok {
			policy = root.DefaultPolicy()
		}
		line := fmt.Sprintf("`/%s` %s", root.Name(), policyBadge(policy))
		byCategory[root.Category()] = append(byCategory[root.Category()], line)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	embed := &discordgo.MessageEmbed{
		Title:       "Command policies",
		Description: fmt.Sprintf("Staff roles: %s", roleList(cfg.StaffRoles)),
	}
	for _, cat := range categories {
		lines := byCategory[cat]
		sort.Strings(lines)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  cat,
			Value: strings.Join(lines, "\n"),
		})
	}
	return command.RespondEmbedEphemeral(s, event, embed)
}

func policyBadge(p moderation.CommandPolicy) string {
	var tags []string
	if !p.Enabled {
		tags = append(tags, "disabled")
	}
	if p.OwnerOnly {
		tags = append(tags, "owner-only")
	} else if p.Public {
		tags = append(tags, "public")
	}
	if len(p.Whitelist) > 0 {
		tags = append(tags, fmt.Sprintf("wl:%d", len(p.Whitelist)))
	}
	if len(p.Blacklist) > 0 {
		tags = append(tags, fmt.Sprintf("bl:%d", len(p.Blacklist)))
	}
	if len(tags) == 0 {
		return "staff"
	}
	return strings.Join(tags, ", ")
}

func init() {
	register(&PanelCommand{})
}
