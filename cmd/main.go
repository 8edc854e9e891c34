package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/adpimport"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/cache"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/http/api"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/http/swagger"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/livesync"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/mcpserver"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/platform"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	app "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/config"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/draft"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
	"github.com/ckwame-jpg/fantasy-tool/pkg/metrics"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
	redisPrefix               = "draftboard:"
)

func main() {
	// We collect our own system metrics instead of the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(logger.WithFormat(os.Getenv("DRAFTBOARD_LOG_FORMAT"))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "draftboard exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// Load configuration (defaults -> .env -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	client, err := backend.New(cfg.BackendURL,
		backend.WithTimeout(time.Duration(cfg.BackendTimeoutMS)*time.Millisecond),
		backend.WithRateLimit(cfg.BackendRPS, cfg.BackendBurst),
		backend.WithCache(store, time.Duration(cfg.PlayerCacheTTLSeconds)*time.Second),
		backend.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}

	picks, err := newPickStore(ctx, cfg, client)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log),
		app.WithPlayerSource(client),
		app.WithADPSource(newADPSource(cfg, client, log)),
		app.WithPickStore(picks),
		app.WithFavorites(client),
		app.WithTeams(client),
		app.WithWorkerCount(cfg.PersistWorkers),
		app.WithQueueSize(cfg.PersistQueueSize),
		app.WithMaxDrafts(cfg.MaxDrafts),
		app.WithPacing(cfg.PicksPerRound, cfg.TotalRounds),
		app.WithDefaultQuery(cfg.Season, cfg.OnTeamOnly),
		app.WithExternalSource(
			platform.NewSleeperClient(cfg.SleeperBaseURL, platform.WithSleeperLogger(log)),
			cfg.SleeperPoll,
		),
	)

	hub := livesync.NewHub(ctx, livesync.WithObserver(svc), livesync.WithHubLogger(log))
	defer hub.Close()
	svc.SetTransport(newTransport(ctx, cfg, hub, svc, log))

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	if cfg.SleeperDraftID != "" {
		if err := svc.WatchExternal(ctx, cfg.SleeperDraftID, cfg.SleeperTarget); err != nil {
			// The board may be unreachable at boot; the watch can be added later over HTTP.
			log.Warn(ctx, "external draft watch not started",
				logger.String("sleeper_draft_id", cfg.SleeperDraftID), logger.Error(err))
		}
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(cfg, svc, hub, client, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newCache returns the player-list cache named by cfg and a function releasing it.
func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		r, err := cache.DialRedis(ctx, cfg.RedisAddr, redisPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return cache.NewMemory(), func() {}, nil
	}
}

// newPickStore returns the persistence target of drafted lists.
func newPickStore(ctx context.Context, cfg *config.Config, client *backend.Client) (draft.PickStore, error) {
	switch cfg.PickStore {
	case "postgres", "sqlite":
		s, err := repository.OpenSQLPickStore(ctx, repository.SQLConfig{
			Driver: cfg.PickStore,
			DSN:    cfg.DatabaseDSN,
			Debug:  cfg.LogLevel == "debug",
		})
		if err != nil {
			return nil, fmt.Errorf("%s pick store: %w", cfg.PickStore, err)
		}
		return s, nil
	case "memory":
		return repository.NewMemoryPickStore(), nil
	default:
		return client, nil
	}
}

func newADPSource(cfg *config.Config, client *backend.Client, log logger.Logger) app.ADPSource {
	if cfg.ADPHTMLFile != "" {
		return adpimport.NewFileSource(cfg.ADPHTMLFile, log)
	}
	return client
}

// newTransport joins the relay at cfg.LiveURL when set, otherwise routes events through the in-process hub.
func newTransport(ctx context.Context, cfg *config.Config, hub *livesync.Hub, svc *app.Service, log logger.Logger) draft.Transport {
	if cfg.LiveURL == "" {
		return livesync.NewHubTransport(hub)
	}
	c := livesync.NewClient(cfg.LiveURL, svc, livesync.WithClientLogger(log))
	go func() {
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(ctx, "live relay client stopped", logger.Error(err))
		}
	}()
	return c
}

func newRouter(cfg *config.Config, svc *app.Service, hub *livesync.Hub, client *backend.Client, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	swagger.Register(r)

	opts := []api.Option{
		api.WithOnTeamOnly(cfg.OnTeamOnly),
		api.WithReadiness(func() bool { return svc.GetStats()["started"] == true }),
		api.WithLiveHandler(livesync.Handler(hub, livesync.WithHandlerLogger(log))),
		api.WithStats("live", func() any { return hub.Stats() }),
		api.WithStats("backendBreaker", func() any { return client.BreakerState() }),
	}
	if cfg.MCPEnabled {
		opts = append(opts, api.WithMCPHandler(mcpserver.New(svc, version, mcpserver.WithLogger(log)).Handler()))
	}
	api.NewServer(svc, opts...).Register(r)
	return r
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that only change when read.
func updateServiceMetrics(svc *app.Service) {
	// GetStats updates the queue and session gauges itself.
	_ = svc.GetStats()
}
