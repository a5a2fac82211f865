package middleware

import (
	"time"

	"server-warden/internal/command"
	"server-warden/internal/storage"
)

// WithCommandLog records every invocation in the command history. A failed
// history write never blocks the command itself.
func WithCommandLog() command.Middleware {
	return func(cmd command.Command) command.Command {
		return command.Wrap(cmd, func(ctx interface{}) error {
			slash, ok := ctx.(*command.SlashContext)
			if !ok {
				return cmd.Run(ctx)
			}

			if member := slash.Event.Member; member != nil && member.User != nil {
				err := slash.Deps.Storage.AppendCommandHistory(storage.CommandHistory{
					GuildID:   slash.Event.GuildID,
					ChannelID: slash.Event.ChannelID,
					UserID:    member.User.ID,
					Username:  member.User.Username,
					Command:   command.Root(cmd).Name(),
					Datetime:  time.Now().UTC(),
				})
				if err != nil {
					slash.Deps.Log.Warn().Err(err).Msg("failed to log command invocation")
				}
			}

			return cmd.Run(ctx)
		})
	}
}
