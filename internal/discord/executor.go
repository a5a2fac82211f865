package discord

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"server-warden/pkg/retrylimit"
)

// callTimeout bounds every REST call so a slow API cannot wedge a command
// handler.
const callTimeout = 10 * time.Second

// Executor performs moderation side effects against the Discord API, behind
// an adaptive rate limiter. Satisfies command.Executor.
type Executor struct {
	s   *discordgo.Session
	lim *retrylimit.AdaptiveLimiter
	log zerolog.Logger
}

// NewExecutor wraps a session.
func NewExecutor(s *discordgo.Session, log zerolog.Logger) *Executor {
	return &Executor{
		s:   s,
		lim: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		log: log,
	}
}

func (e *Executor) do(op string, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	err := retrylimit.Do(ctx, e.lim, 3, func() error {
		return classify(fn())
	})
	if err != nil {
		e.log.Error().Err(err).Str("op", op).Msg("discord call failed")
	}
	return err
}

// Ban bans userID from the guild.
func (e *Executor) Ban(guildID, userID, reason string) error {
	return e.do("ban", func() error {
		return e.s.GuildBanCreateWithReason(guildID, userID, reason, 0)
	})
}

// Unban lifts a ban.
func (e *Executor) Unban(guildID, userID string) error {
	return e.do("unban", func() error {
		return e.s.GuildBanDelete(guildID, userID)
	})
}

// Kick removes userID from the guild.
func (e *Executor) Kick(guildID, userID, reason string) error {
	return e.do("kick", func() error {
		return e.s.GuildMemberDeleteWithReason(guildID, userID, reason)
	})
}

// Timeout sets (or, with nil, clears) a member's communication timeout.
func (e *Executor) Timeout(guildID, userID string, until *time.Time) error {
	return e.do("timeout", func() error {
		return e.s.GuildMemberTimeout(guildID, userID, until)
	})
}

// LockChannel denies (or restores) send permission for @everyone in a
// channel. The @everyone role id equals the guild id.
func (e *Executor) LockChannel(guildID, channelID string, lock bool) error {
	return e.do("lock", func() error {
		if lock {
			return e.s.ChannelPermissionSet(channelID, guildID,
				discordgo.PermissionOverwriteTypeRole, 0, discordgo.PermissionSendMessages)
		}
		return e.s.ChannelPermissionDelete(channelID, guildID)
	})
}

// Slowmode sets the per-user message interval for a channel; 0 disables it.
func (e *Executor) Slowmode(channelID string, seconds int) error {
	return e.do("slowmode", func() error {
		_, err := e.s.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
			RateLimitPerUser: &seconds,
		})
		return err
	})
}

// restStatusError exposes discordgo REST failures to the retry classifier.
type restStatusError struct{ inner *discordgo.RESTError }

func (e *restStatusError) Error() string { return e.inner.Error() }
func (e *restStatusError) Unwrap() error { return e.inner }
func (e *restStatusError) StatusCode() int {
	if e.inner.Response != nil {
		return e.inner.Response.StatusCode
	}
	return 0
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		return &restStatusError{inner: restErr}
	}
	return err
}
