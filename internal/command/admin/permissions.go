package admin

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/moderation"
)

type PermissionsCommand struct{}

func (c *PermissionsCommand) Name() string        { return "perms" }
func (c *PermissionsCommand) Description() string { return "Configure per-command permissions" }
func (c *PermissionsCommand) Category() string    { return "Admin" }
func (c *PermissionsCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.CommandPolicy{Enabled: true, OwnerOnly: true}
}

func (c *PermissionsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	nameOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "command",
		Description: "Command name",
		Required:    true,
	}
	roleOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: "Role to add or remove",
		Required:    true,
	}
	listOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "list",
		Description: "Which list",
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "whitelist", Value: "whitelist"},
			{Name: "blacklist", Value: "blacklist"},
		},
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Enable a command",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Disable a command for everyone but the owner",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "public",
				Description: "Toggle whether a command is open to everyone",
				Options: []*discordgo.ApplicationCommandOption{
					nameOption,
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "open",
						Description: "true to open the command to everyone",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "allow",
				Description: "Add a role to a command's whitelist or blacklist",
				Options:     []*discordgo.ApplicationCommandOption{nameOption, listOption, roleOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "revoke",
				Description: "Remove a role from a command's whitelist or blacklist",
				Options:     []*discordgo.ApplicationCommandOption{nameOption, listOption, roleOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "show",
				Description: "Show a command's effective policy",
				Options:     []*discordgo.ApplicationCommandOption{nameOption},
			},
		},
	}
}

func (c *PermissionsCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps
	opts := command.Options(event)

	name := opts["command"].StringValue()
	if _, registered := command.Get(name); !registered {
		return command.RespondEphemeral(s, event, fmt.Sprintf("No command named `%s`.", name))
	}

	switch command.Subcommand(event) {
	case "enable", "disable":
		enabled := command.Subcommand(event) == "enable"
		if err := deps.Storage.SetCommandEnabled(name, enabled); err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to save: %v", err))
		}
		deps.Engine.Invalidate()
		state := "disabled"
		if enabled {
			state = "enabled"
		}
		return command.RespondEphemeral(s, event, fmt.Sprintf("`%s` is now %s.", name, state))

	case "public":
		open := opts["open"].BoolValue()
		policy, _, err := deps.Storage.CommandPolicy(name)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read policy: %v", err))
		}
		policy.Public = open
		if err := deps.Storage.SetCommandPolicy(name, policy); err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to save: %v", err))
		}
		deps.Engine.Invalidate()
		if open {
			return command.RespondEphemeral(s, event, fmt.Sprintf("`%s` is now open to everyone.", name))
		}
		return command.RespondEphemeral(s, event, fmt.Sprintf("`%s` is staff-gated again.", name))

	case "allow", "revoke":
		role := opts["role"].RoleValue(s, event.GuildID)
		blacklist := opts["list"].StringValue() == "blacklist"
		var opErr error
		if command.Subcommand(event) == "allow" {
			opErr = deps.Storage.AddCommandRole(name, role.ID, blacklist)
		} else {
			opErr = deps.Storage.RemoveCommandRole(name, role.ID, blacklist)
		}
		if opErr != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to save: %v", opErr))
		}
		deps.Engine.Invalidate()
		return command.RespondEphemeral(s, event,
			fmt.Sprintf("Updated the %s of `%s`.", opts["list"].StringValue(), name))

	case "show":
		policy, ok, err := deps.Storage.CommandPolicy(name)
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read policy: %v", err))
		}
		if !ok {
			policy = moderation.DefaultPolicy()
		}
		return command.RespondEmbed(s, event, policyEmbed(name, policy))

	default:
		return command.RespondEphemeral(s, event, "Unknown subcommand.")
	}
}

func policyEmbed(name string, p moderation.CommandPolicy) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Policy for /" + name,
		Description: policySummary(p),
	}
}

// policySummary renders a policy the way the permission engine reads it.
func policySummary(p moderation.CommandPolicy) string {
	var lines []string
	if !p.Enabled {
		lines = append(lines, "**Disabled** for everyone but the owner")
	}
	switch {
	case p.OwnerOnly:
		lines = append(lines, "Owner only (whitelist roles may also run it)")
	case p.Public:
		lines = append(lines, "Public, anyone not blacklisted")
	default:
		lines = append(lines, "Staff roles and whitelisted roles")
	}
	lines = append(lines, "Whitelist: "+roleList(p.Whitelist))
	lines = append(lines, "Blacklist: "+roleList(p.Blacklist))
	return strings.Join(lines, "\n")
}

func roleList(ids []string) string {
	if len(ids) == 0 {
		return "none"
	}
	mentions := make([]string, 0, len(ids))
	for _, id := range ids {
		mentions = append(mentions, "<@&"+id+">")
	}
	return strings.Join(mentions, ", ")
}

func init() {
	register(&PermissionsCommand{})
}
