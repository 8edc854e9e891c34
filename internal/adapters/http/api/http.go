// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	BoardDependencies
	DraftDependencies
	FavoritesDependencies
	StatsProvider
}

// DefaultMaxLimit caps limit parameters when no option sets one.
const DefaultMaxLimit = 500

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	boardHandler     *BoardHandler
	draftsHandler    *DraftsHandler
	favoritesHandler *FavoritesHandler

	live http.Handler
	mcp  http.Handler
}

type serverConfig struct {
	maxLimit   int
	onTeamOnly bool
	ready      func() bool
	live       http.Handler
	mcp        http.Handler
	extraStats map[string]func() any
}

// Option configures a Server.
type Option func(*serverConfig)

// WithMaxLimit caps the limit parameter of board routes.
func WithMaxLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithOnTeamOnly sets the default of the on_team_only board parameter.
func WithOnTeamOnly(v bool) Option {
	return func(c *serverConfig) { c.onTeamOnly = v }
}

// WithReadiness makes /healthz report 503 until ready returns true.
func WithReadiness(ready func() bool) Option {
	return func(c *serverConfig) { c.ready = ready }
}

// WithLiveHandler mounts the live draft relay at /ws.
func WithLiveHandler(h http.Handler) Option {
	return func(c *serverConfig) { c.live = h }
}

// WithMCPHandler mounts the MCP endpoint at /mcp.
func WithMCPHandler(h http.Handler) Option {
	return func(c *serverConfig) { c.mcp = h }
}

// WithStats adds a named section to /stats.
func WithStats(name string, fn func() any) Option {
	return func(c *serverConfig) {
		if c.extraStats == nil {
			c.extraStats = make(map[string]func() any)
		}
		c.extraStats[name] = fn
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: DefaultMaxLimit, onTeamOnly: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(cfg.ready),
		statsHandler:     NewStatsHandler(deps, cfg.extraStats),
		boardHandler:     NewBoardHandler(deps, cfg.maxLimit, cfg.onTeamOnly),
		draftsHandler:    NewDraftsHandler(deps),
		favoritesHandler: NewFavoritesHandler(deps),
		live:             cfg.live,
		mcp:              cfg.mcp,
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/board", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.boardHandler.HandleBoard, "board"))
		r.Get("/top", MetricsMiddleware(s.boardHandler.HandleTop, "board_top"))
		r.Get("/{playerId}", MetricsMiddleware(s.boardHandler.HandlePlayer, "board_player"))
	})

	r.Route("/drafts/{draftId}", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.draftsHandler.HandleGet, "draft"))
		r.Post("/picks", MetricsMiddleware(s.draftsHandler.HandleDraft, "draft_picks"))
		r.Delete("/picks", MetricsMiddleware(s.draftsHandler.HandleReset, "draft_picks"))
		r.Delete("/picks/{playerId}", MetricsMiddleware(s.draftsHandler.HandleRemove, "draft_pick"))
		r.Post("/sync", MetricsMiddleware(s.draftsHandler.HandleSync, "draft_sync"))
		r.Get("/roster", MetricsMiddleware(s.draftsHandler.HandleRoster, "draft_roster"))
		r.Post("/team", MetricsMiddleware(s.draftsHandler.HandleSaveTeam, "draft_team"))
		r.Post("/external", MetricsMiddleware(s.draftsHandler.HandleWatch, "draft_external"))
		r.Delete("/external", MetricsMiddleware(s.draftsHandler.HandleUnwatch, "draft_external"))
	})

	r.Get("/favorites", MetricsMiddleware(s.favoritesHandler.HandleGet, "favorites"))
	r.Put("/favorites", MetricsMiddleware(s.favoritesHandler.HandlePut, "favorites"))

	// Upgraded and streaming connections need the raw writer, so no metrics wrapper.
	if s.live != nil {
		r.Get("/ws", s.live.ServeHTTP)
	}
	if s.mcp != nil {
		r.Handle("/mcp", s.mcp)
	}
}

// Handler returns a router serving every route of s.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}
