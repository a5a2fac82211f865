// cmd/discord/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "server-warden/internal/command/admin"
	_ "server-warden/internal/command/cases"
	_ "server-warden/internal/command/mod"

	"server-warden/internal/config"
	"server-warden/internal/discord"
	"server-warden/internal/ledger"
	"server-warden/internal/logging"
	"server-warden/internal/permission"
	"server-warden/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", "")
		fallback.Fatal().Err(err).Msg("config load failed")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage open failed")
	}
	defer store.Close()

	led := ledger.New(store, log)
	engine := permission.NewEngine(store, cfg.PermissionTTL, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- discord.StartBot(ctx, cfg, store, led, engine, log)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("bot exited with error")
		}
		cancel()
	}

	log.Info().Msg("exited cleanly")
}
