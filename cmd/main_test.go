package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/smartystreets/goconvey/convey"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/adpimport"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/backend"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/cache"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/livesync"
	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	app "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/config"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

func TestMainConfiguration(t *testing.T) {
	convey.Convey("Given DRAFTBOARD_ environment variables", t, func() {
		_ = os.Setenv("DRAFTBOARD_ADDR", ":8080")
		_ = os.Setenv("DRAFTBOARD_PICK_STORE", "memory")
		_ = os.Setenv("DRAFTBOARD_PERSIST_WORKERS", "4")
		defer func() {
			_ = os.Unsetenv("DRAFTBOARD_ADDR")
			_ = os.Unsetenv("DRAFTBOARD_PICK_STORE")
			_ = os.Unsetenv("DRAFTBOARD_PERSIST_WORKERS")
		}()

		convey.Convey("Then configuration should be loadable", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.PickStore, convey.ShouldEqual, "memory")
			convey.So(cfg.PersistWorkers, convey.ShouldEqual, 4)
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		_ = os.Setenv("DRAFTBOARD_ADDR", "")
		defer func() { _ = os.Unsetenv("DRAFTBOARD_ADDR") }()

		convey.Convey("Then configuration loading should fail", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		client, err := backend.New("http://127.0.0.1:1")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the cache backend is memory", func() {
			store, closeFn, err := newCache(ctx, cfg)
			convey.So(err, convey.ShouldBeNil)
			defer closeFn()

			convey.Convey("Then an in-process cache is used", func() {
				_, ok := store.(*cache.Memory)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When choosing the pick store", func() {
			convey.Convey("Then backend persists through the API client", func() {
				store, err := newPickStore(ctx, cfg, client)
				convey.So(err, convey.ShouldBeNil)
				convey.So(store, convey.ShouldEqual, client)
			})

			convey.Convey("Then memory keeps picks in process", func() {
				cfg.PickStore = "memory"
				store, err := newPickStore(ctx, cfg, client)
				convey.So(err, convey.ShouldBeNil)
				_, ok := store.(*repository.MemoryPickStore)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an ADP HTML file is configured", func() {
			cfg.ADPHTMLFile = filepath.Join(t.TempDir(), "adp.html")
			src := newADPSource(cfg, client, logger.Nop())

			convey.Convey("Then the file replaces the backend feed", func() {
				_, ok := src.(*adpimport.FileSource)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When no ADP file is configured", func() {
			convey.So(newADPSource(cfg, client, logger.Nop()), convey.ShouldEqual, client)
		})

		convey.Convey("When no live relay URL is configured", func() {
			hubCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			hub := livesync.NewHub(hubCtx)
			defer hub.Close()

			tr := newTransport(hubCtx, cfg, hub, app.New(), logger.Nop())

			convey.Convey("Then sessions publish through the in-process hub", func() {
				_, ok := tr.(*livesync.HubTransport)
				convey.So(ok, convey.ShouldBeTrue)
			})
		})
	})
}

func TestMainRouter(t *testing.T) {
	convey.Convey("Given the assembled router", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cfg := config.New()
		client, err := backend.New("http://127.0.0.1:1")
		convey.So(err, convey.ShouldBeNil)
		svc := app.New()
		hub := livesync.NewHub(ctx)
		defer hub.Close()

		convey.Convey("When the service has not started", func() {
			h := newRouter(cfg, svc, hub, client, logger.Nop())
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			convey.Convey("Then health reports starting", func() {
				convey.So(rec.Code, convey.ShouldEqual, http.StatusServiceUnavailable)
				convey.So(rec.Body.String(), convey.ShouldContainSubstring, "starting")
			})
		})

		convey.Convey("When routes are matched", func() {
			routes, ok := newRouter(cfg, svc, hub, client, logger.Nop()).(chi.Routes)
			convey.So(ok, convey.ShouldBeTrue)

			convey.Convey("Then documentation, relay and MCP are mounted", func() {
				convey.So(routes.Match(chi.NewRouteContext(), http.MethodGet, "/swagger"), convey.ShouldBeTrue)
				convey.So(routes.Match(chi.NewRouteContext(), http.MethodGet, "/ws"), convey.ShouldBeTrue)
				convey.So(routes.Match(chi.NewRouteContext(), http.MethodPost, "/mcp"), convey.ShouldBeTrue)
				convey.So(routes.Match(chi.NewRouteContext(), http.MethodGet, "/board/top"), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When MCP is disabled", func() {
			cfg.MCPEnabled = false
			routes := newRouter(cfg, svc, hub, client, logger.Nop()).(chi.Routes)

			convey.Convey("Then /mcp is not mounted", func() {
				convey.So(routes.Match(chi.NewRouteContext(), http.MethodPost, "/mcp"), convey.ShouldBeFalse)
			})
		})
	})
}

func TestMainMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("When the system updater runs until its context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When updating once", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(app.New()) }, convey.ShouldNotPanic)
		})
	})
}
