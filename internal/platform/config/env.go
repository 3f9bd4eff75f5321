// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	HTTPAddr string `env:"MITO_HTTP_ADDR" envDefault:":8080"`
	// Seed drives event draws; 0 picks a time-based seed.
	Seed int64 `env:"MITO_SEED" envDefault:"0"`

	LedgerEnabled bool   `env:"MITO_LEDGER_ENABLED" envDefault:"true"`
	LedgerDSN     string `env:"MITO_LEDGER_DSN" envDefault:"file:mito?mode=memory&cache=shared"`

	// Profile selects the buffer preset; explicit buffer sizes override it.
	Profile          Profile `env:"MITO_PROFILE" envDefault:"default"`
	ClientSendBuffer int     `env:"MITO_CLIENT_SEND_BUFFER"`
	BroadcastBuffer  int     `env:"MITO_BROADCAST_BUFFER"`
	DBMaxOpenConns   int     `env:"MITO_DB_MAX_OPEN_CONNS"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional .env file from the working directory, then the
// environment. Variables already set win over the file.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load dotenv: %w", err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Profile.Validate(); err != nil {
		return Config{}, err
	}

	tuning := cfg.Profile.Tuning()
	if cfg.ClientSendBuffer <= 0 {
		cfg.ClientSendBuffer = tuning.ClientSendBuffer
	}
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = tuning.BroadcastBuffer
	}
	if cfg.DBMaxOpenConns <= 0 {
		cfg.DBMaxOpenConns = tuning.DBMaxOpenConns
	}
	return cfg, nil
}
