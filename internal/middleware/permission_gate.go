// Package middleware provides the decorators applied to every command:
// the permission gate, the guild-only check and the invocation log.
package middleware

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"server-warden/internal/command"
	"server-warden/internal/config"
	"server-warden/internal/permission"
)

// WithPermissionGate denies the command before it runs unless the permission
// engine allows the caller. The deny message is keyed off the verdict reason;
// the reason strings are stable, so substring matching is safe here.
func WithPermissionGate() command.Middleware {
	return func(cmd command.Command) command.Command {
		return command.Wrap(cmd, func(ctx interface{}) error {
			slash, ok := ctx.(*command.SlashContext)
			if !ok {
				return cmd.Run(ctx)
			}

			s, event, deps := slash.Session, slash.Event, slash.Deps
			member := event.Member
			if event.GuildID == "" || member == nil || member.User == nil {
				return command.RespondEphemeral(s, event, "This command only works in a server.")
			}

			caller := permission.CallerContext{
				RoleIDs: member.Roles,
				IsOwner: IsOwner(s, event.GuildID, member.User.ID, deps.Config),
			}

			verdict := deps.Engine.Evaluate(command.Root(cmd).Name(), caller)
			if verdict.Allowed {
				return cmd.Run(ctx)
			}
			return command.RespondEphemeral(s, event, denyMessage(verdict.Reason))
		})
	}
}

// IsOwner reports whether userID owns the guild or is the configured
// developer. State cache first, API fallback, as everywhere else.
func IsOwner(s *discordgo.Session, guildID, userID string, cfg *config.Config) bool {
	if config.IsDeveloper(cfg, userID) {
		return true
	}

	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, err = s.Guild(guildID)
		if err != nil || guild == nil {
			return false
		}
	}
	return userID == guild.OwnerID
}

func denyMessage(reason string) string {
	lower := strings.ToLower(reason)
	switch {
	case strings.Contains(lower, "disabled"):
		return "This command is disabled on this server."
	case strings.Contains(lower, "blacklisted"):
		return "One of your roles is blacklisted from using this command."
	case strings.Contains(lower, "staff"):
		return "This command is restricted to staff."
	default:
		return "You don't have permission to use this command."
	}
}
