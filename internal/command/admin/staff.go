package admin

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/moderation"
)

type StaffCommand struct{}

func (c *StaffCommand) Name() string        { return "staff" }
func (c *StaffCommand) Description() string { return "Manage the staff role list" }
func (c *StaffCommand) Category() string    { return "Admin" }
func (c *StaffCommand) DefaultPolicy() moderation.CommandPolicy {
	return moderation.CommandPolicy{Enabled: true, OwnerOnly: true}
}

func (c *StaffCommand) SlashDefinition() *discordgo.ApplicationCommand {
	roleOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        "role",
		Description: "Staff role",
		Required:    true,
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Grant a role staff standing",
				Options:     []*discordgo.ApplicationCommandOption{roleOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Revoke a role's staff standing",
				Options:     []*discordgo.ApplicationCommandOption{roleOption},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "Show the staff roles",
			},
		},
	}
}

func (c *StaffCommand) Run(ctx interface{}) error {
	slash, err := slashContext(ctx)
	if err != nil {
		return err
	}
	s, event, deps := slash.Session, slash.Event, slash.Deps
	opts := command.Options(event)

	switch command.Subcommand(event) {
	case "add":
		role := opts["role"].RoleValue(s, event.GuildID)
		if err := deps.Storage.AddStaffRole(role.ID); err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to save: %v", err))
		}
		deps.Engine.Invalidate()
		return command.RespondEphemeral(s, event, fmt.Sprintf("<@&%s> is now a staff role.", role.ID))

	case "remove":
		role := opts["role"].RoleValue(s, event.GuildID)
		if err := deps.Storage.RemoveStaffRole(role.ID); err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to save: %v", err))
		}
		deps.Engine.Invalidate()
		return command.RespondEphemeral(s, event, fmt.Sprintf("<@&%s> is no longer a staff role.", role.ID))

	case "list":
		cfg, err := deps.Storage.PermissionConfig()
		if err != nil {
			return command.RespondEphemeral(s, event, fmt.Sprintf("Failed to read config: %v", err))
		}
		if len(cfg.StaffRoles) == 0 {
			return command.RespondEphemeral(s, event, "No staff roles configured.")
		}
		mentions := make([]string, 0, len(cfg.StaffRoles))
		for _, id := range cfg.StaffRoles {
			mentions = append(mentions, "<@&"+id+">")
		}
		return command.RespondEphemeral(s, event, "Staff roles: "+strings.Join(mentions, ", "))

	default:
		return command.RespondEphemeral(s, event, "Unknown subcommand.")
	}
}

func init() {
	register(&StaffCommand{})
}
