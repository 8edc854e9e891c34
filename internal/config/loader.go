package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "DRAFTBOARD_"
	envFileVar = "DRAFTBOARD_ENV_FILE"
	configVar  = "DRAFTBOARD_CONFIG"
)

// Load builds a Config by layering defaults, .env, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. .env file ($DRAFTBOARD_ENV_FILE or ./.env) exported into the environment
//  3. file (YAML) if DRAFTBOARD_CONFIG is set
//  4. env (prefix DRAFTBOARD_)
func Load(_ context.Context) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(configVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// DRAFTBOARD_PICK_STORE -> pick_store (flat keys matching koanf tags).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports a .env file without overriding variables already set.
func loadDotEnv() error {
	path := os.Getenv(envFileVar)
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PicksPerRound < 1:
		return fmt.Errorf("%w: picks_per_round must be positive", ErrInvalidConfig)
	case c.TotalRounds < 1:
		return fmt.Errorf("%w: total_rounds must be positive", ErrInvalidConfig)
	case c.MaxDrafts < 1:
		return fmt.Errorf("%w: max_drafts must be positive", ErrInvalidConfig)
	}

	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: unknown cache_backend %q", ErrInvalidConfig, c.CacheBackend)
	}

	switch c.PickStore {
	case "backend", "memory":
	case "postgres", "sqlite":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("%w: database_dsn required for pick_store %s", ErrInvalidConfig, c.PickStore)
		}
	default:
		return fmt.Errorf("%w: unknown pick_store %q", ErrInvalidConfig, c.PickStore)
	}

	if c.SleeperDraftID != "" && c.SleeperTarget == "" {
		return fmt.Errorf("%w: sleeper_target required when sleeper_draft_id is set", ErrInvalidConfig)
	}
	return nil
}
