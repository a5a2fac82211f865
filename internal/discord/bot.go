// Package discord adapts the command registry to a live Discord session:
// it opens the gateway, registers slash commands, seeds permission policies
// for newly discovered commands, and dispatches interactions.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"server-warden/internal/command"
	"server-warden/internal/config"
	"server-warden/internal/ledger"
	"server-warden/internal/permission"
	"server-warden/internal/storage"
)

// Bot is the Discord adapter.
type Bot struct {
	dg   *discordgo.Session
	deps *command.Deps
	cfg  *config.Config
	log  zerolog.Logger
}

// StartBot opens the session and blocks until ctx is cancelled.
func StartBot(ctx context.Context, cfg *config.Config, store *storage.Storage, led *ledger.Ledger, engine *permission.Engine, log zerolog.Logger) error {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	b := &Bot{
		dg:  dg,
		cfg: cfg,
		log: log,
	}
	b.deps = &command.Deps{
		Storage: store,
		Ledger:  led,
		Engine:  engine,
		Exec:    NewExecutor(dg, log),
		Config:  cfg,
		Log:     log,
	}

	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildBans
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onGuildCreate)
	dg.AddHandler(b.onInteractionCreate)

	if err := dg.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer dg.Close()

	<-ctx.Done()
	b.log.Info().Msg("shutdown signal received, closing session")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	if err := b.seedPolicies(); err != nil {
		b.log.Error().Err(err).Msg("failed to seed command policies")
	}

	for _, g := range r.Guilds {
		if err := b.registerCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild_id", g.ID).Msg("slash registration failed")
		}
	}

	b.log.Info().Str("user", s.State.User.Username).Int("guilds", len(r.Guilds)).Msg("bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	b.log.Info().Str("guild_id", g.ID).Str("guild", g.Name).Msg("joined guild")
	if err := b.registerCommands(g.ID); err != nil {
		b.log.Error().Err(err).Str("guild_id", g.ID).Msg("slash registration failed")
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	cmd, ok := command.Get(name)
	if !ok {
		b.log.Warn().Str("command", name).Msg("unknown command")
		return
	}

	ctx := &command.SlashContext{Session: s, Event: i, Deps: b.deps}
	if err := cmd.Run(ctx); err != nil {
		b.log.Error().Err(err).Str("command", name).Msg("command failed")
		_ = command.RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Something went wrong running `%s`: %v", name, err),
		})
	}
}

// seedPolicies creates a default permission policy for every command that
// does not have one yet. Policies survive restarts; this only fills gaps.
func (b *Bot) seedPolicies() error {
	for _, cmd := range command.All() {
		if err := b.deps.Storage.EnsureCommandPolicy(cmd.Name(), cmd.DefaultPolicy()); err != nil {
			return err
		}
	}
	// New commands should be evaluable right away, not after TTL expiry.
	b.deps.Engine.Invalidate()
	return nil
}

func (b *Bot) registerCommands(guildID string) error {
	appID := b.dg.State.User.ID
	if appID == "" {
		user, err := b.dg.User("@me")
		if err != nil {
			return err
		}
		appID = user.ID
	}

	var defs []*discordgo.ApplicationCommand
	for _, cmd := range command.All() {
		if sp, ok := cmd.(command.SlashProvider); ok {
			if def := sp.SlashDefinition(); def != nil {
				defs = append(defs, def)
			}
		}
	}

	_, err := b.dg.ApplicationCommandBulkOverwrite(appID, guildID, defs)
	return err
}
