package middleware

import "server-warden/internal/command"

// WithGuildOnly silently refuses command invocations outside a guild (DMs).
func WithGuildOnly() command.Middleware {
	return func(cmd command.Command) command.Command {
		return command.Wrap(cmd, func(ctx interface{}) error {
			if slash, ok := ctx.(*command.SlashContext); ok && slash.Event.GuildID == "" {
				return command.RespondEphemeral(slash.Session, slash.Event,
					"This command only works in a server.")
			}
			return cmd.Run(ctx)
		})
	}
}
