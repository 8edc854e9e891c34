// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers .env, an optional YAML file and DRAFTBOARD_* env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the players/picks/teams API.
	BackendURL string `koanf:"backend_url"`
	// BackendTimeoutMS bounds each upstream request.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`
	// BackendRPS and BackendBurst configure the upstream rate limiter.
	BackendRPS   float64 `koanf:"backend_rps"`
	BackendBurst int     `koanf:"backend_burst"`

	// Season is the default draft season for board queries.
	Season int `koanf:"season"`
	// OnTeamOnly asks the backend to omit players without a team.
	OnTeamOnly bool `koanf:"on_team_only"`

	// PicksPerRound and TotalRounds drive draft pacing.
	PicksPerRound int `koanf:"picks_per_round"`
	TotalRounds   int `koanf:"total_rounds"`

	// PlayerCacheTTLSeconds caches upstream player lists.
	PlayerCacheTTLSeconds int `koanf:"player_cache_ttl_s"`
	// CacheBackend is memory or redis.
	CacheBackend string `koanf:"cache_backend"`
	// RedisAddr is used when CacheBackend is redis.
	RedisAddr string `koanf:"redis_addr"`

	// PickStore selects where picks persist: backend, postgres, sqlite, memory.
	PickStore string `koanf:"pick_store"`
	// DatabaseDSN is the gorm DSN for postgres or sqlite pick stores.
	DatabaseDSN string `koanf:"database_dsn"`

	// PersistQueueSize bounds the async pick persistence queue.
	PersistQueueSize int `koanf:"persist_queue_size"`
	// PersistWorkers sets the number of persistence workers.
	PersistWorkers int `koanf:"persist_workers"`
	// MaxDrafts bounds the drafts kept in memory; the least recently used one is evicted past it.
	MaxDrafts int `koanf:"max_drafts"`

	// ADPHTMLFile, when set, replaces the backend ADP feed with a table parsed from this HTML file.
	ADPHTMLFile string `koanf:"adp_html_file"`

	// LiveURL is the websocket relay the service joins as a participant. Empty disables it.
	LiveURL string `koanf:"live_url"`

	// SleeperDraftID enables external platform sync into DraftID when set.
	SleeperDraftID string `koanf:"sleeper_draft_id"`
	SleeperBaseURL string `koanf:"sleeper_base_url"`
	// SleeperPoll is a cron spec, "@every 5s" by default.
	SleeperPoll string `koanf:"sleeper_poll"`
	// SleeperTarget is the local draft id receiving external picks.
	SleeperTarget string `koanf:"sleeper_target"`

	// MCPEnabled mounts the MCP tool endpoint under /mcp.
	MCPEnabled bool `koanf:"mcp_enabled"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		BackendURL:            "http://localhost:8000",
		BackendTimeoutMS:      10_000,
		BackendRPS:            20,
		BackendBurst:          10,
		Season:                2025,
		OnTeamOnly:            true,
		PicksPerRound:         15,
		TotalRounds:           1,
		PlayerCacheTTLSeconds: 300,
		CacheBackend:          "memory",
		RedisAddr:             "localhost:6379",
		PickStore:             "backend",
		PersistQueueSize:      1_024,
		PersistWorkers:        runtime.NumCPU(),
		MaxDrafts:             256,
		SleeperBaseURL:        "https://api.sleeper.app/v1",
		SleeperPoll:           "@every 5s",
		MCPEnabled:            true,
	}
}
