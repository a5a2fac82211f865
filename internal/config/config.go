package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the bot reads from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables win over it.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required"`
	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`

	// DeveloperID is treated like a guild owner for permission checks.
	DeveloperID string `env:"DEVELOPER_ID"`

	PermissionTTL time.Duration `env:"PERMISSION_TTL" envDefault:"60s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// Load reads the environment (and an optional .env file) into a Config.
func Load() (*Config, error) {
	// Missing .env is fine; system environment is the fallback.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// IsDeveloper reports whether userID is the configured developer.
func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && userID == cfg.DeveloperID
}
