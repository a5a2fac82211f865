// Package command defines the command contract and registry. Commands are
// registered from init() in their subpackages; the discord adapter looks them
// up and invokes them with a typed context.
package command

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"server-warden/internal/config"
	"server-warden/internal/ledger"
	"server-warden/internal/moderation"
	"server-warden/internal/permission"
	"server-warden/internal/storage"
)

type Command interface {
	Name() string
	Description() string
	Category() string

	// DefaultPolicy seeds the command's permission policy on first
	// discovery. Existing policies are never overwritten by it.
	DefaultPolicy() moderation.CommandPolicy

	Run(ctx interface{}) error
}

// SlashProvider is implemented by commands registered as slash commands.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// Deps carries the services every command may need. The discord adapter
// builds one and threads it through the contexts.
type Deps struct {
	Storage *storage.Storage
	Ledger  *ledger.Ledger
	Engine  *permission.Engine
	Exec    Executor
	Config  *config.Config
	Log     zerolog.Logger
}

// Executor performs the platform-side moderation effects. Implemented by the
// discord package; an interface here so commands stay testable without a live
// session.
type Executor interface {
	Ban(guildID, userID, reason string) error
	Unban(guildID, userID string) error
	Kick(guildID, userID, reason string) error
	Timeout(guildID, userID string, until *time.Time) error
	LockChannel(guildID, channelID string, lock bool) error
	Slowmode(channelID string, seconds int) error
}

// SlashContext is handed to slash command invocations.
type SlashContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Deps    *Deps
}
