// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the streamshot runtime together and owns its lifecycle.
package daemon

import (
	"context"
	"fmt"
	"os"

	"github.com/ManuGH/streamshot/internal/api"
	"github.com/ManuGH/streamshot/internal/astro"
	"github.com/ManuGH/streamshot/internal/bus"
	"github.com/ManuGH/streamshot/internal/cache"
	"github.com/ManuGH/streamshot/internal/config"
	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/engine"
	"github.com/ManuGH/streamshot/internal/fsutil"
	"github.com/ManuGH/streamshot/internal/geo"
	"github.com/ManuGH/streamshot/internal/health"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/media"
	"github.com/ManuGH/streamshot/internal/notify"
	"github.com/ManuGH/streamshot/internal/resolver"
	"github.com/ManuGH/streamshot/internal/settings"
	"github.com/ManuGH/streamshot/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Cache backends reported by Runtime.CacheBackend.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	redisKeyPrefix = "streamshot:stream:"
	historySize    = 100
)

// Option overrides a collaborator, mostly for tests.
type Option func(*options)

type options struct {
	streams media.StreamResolver
	grabber media.Grabber
	locator api.Locator
	version string
}

// WithStreamResolver replaces the yt-dlp backend.
func WithStreamResolver(r media.StreamResolver) Option {
	return func(o *options) { o.streams = r }
}

// WithGrabber replaces ffmpeg.
func WithGrabber(g media.Grabber) Option {
	return func(o *options) { o.grabber = g }
}

// WithLocator replaces the IP geolocation providers.
func WithLocator(l api.Locator) Option {
	return func(o *options) { o.locator = l }
}

// WithVersion sets the version reported by the API and traces.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Runtime is a fully wired daemon, ready to Run.
type Runtime struct {
	App      *App
	Manager  Manager
	Settings *settings.Store
	Engine   *engine.Engine
	History  *notify.History

	// CacheBackend is CacheMemory or CacheRedis.
	CacheBackend string
}

// Run blocks until ctx is done or a quit was requested through the API.
func (rt *Runtime) Run(ctx context.Context) error {
	return rt.App.Run(ctx)
}

// Bootstrap builds every component from cfg. On error nothing is left running.
func Bootstrap(ctx context.Context, cfg config.Config, opts ...Option) (rt *Runtime, err error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}
	logger := xglog.WithComponent("daemon")

	// Resources opened so far; closed on failure, handed to the manager on success.
	var cleanups []namedHook
	defer func() {
		if err != nil {
			for i := len(cleanups) - 1; i >= 0; i-- {
				_ = cleanups[i].hook(context.WithoutCancel(ctx))
			}
		}
	}()

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	tp, err := telemetry.NewProvider(ctx, cfg.Telemetry(o.version))
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}
	cleanups = append(cleanups, namedHook{"telemetry", tp.Shutdown})

	store, err := settings.Open(settings.NewFile(cfg.SettingsPath()),
		settings.WithLegacyImport(cfg.LegacyPath()),
	)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	cleanups = append(cleanups, namedHook{"settings", func(context.Context) error { return store.Close() }})

	if err := fsutil.EnsureDir(store.Snapshot().OutputDirectory); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	streamCache, backend, closeCache := openCache(ctx, cfg, logger)
	cleanups = append(cleanups, namedHook{"cache", closeCache})

	streams := o.streams
	if streams == nil {
		streams = media.NewYTDLP(cfg.YTDLPBin, cfg.ResolveTimeout, cfg.KillGrace)
	}
	grabber := o.grabber
	if grabber == nil {
		grabber = media.NewFFmpeg(cfg.FFmpegBin, cfg.GrabTimeout, cfg.KillGrace)
	}
	res := resolver.New(streams, streamCache, resolver.WithTTL(cfg.StreamTTL))
	cleanups = append(cleanups, namedHook{"resolver", func(context.Context) error { res.Wait(); return nil }})

	gate := astro.NewGate()
	events := bus.NewMemoryBus[domain.CaptureEvent]()

	eng, err := engine.New(engine.Deps{
		Settings: store,
		Gate:     gate,
		Resolver: res,
		Grabber:  grabber,
		Events:   events,
		Tracer:   telemetry.Tracer("streamshot/engine"),
	})
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	history := notify.NewHistory(historySize)
	notifiers := []notify.Notifier{history, notify.NewLogNotifier(xglog.WithComponent("notify"))}
	if cfg.NotifyCmd != "" {
		hook, err := notify.NewHookNotifier(cfg.NotifyCmd, cfg.NotifyInterval)
		if err != nil {
			return nil, fmt.Errorf("notify command: %w", err)
		}
		notifiers = append(notifiers, hook)
	}
	dispatcher := notify.NewDispatcher(events, notifiers...).After(eng.Done())

	locator := o.locator
	if locator == nil {
		locator = geo.Default()
	}
	if cfg.AutoLocate {
		autoLocate(ctx, store, locator, logger)
	}

	hm := health.NewManager(o.version)
	hm.RegisterChecker(health.NewSettingsChecker(store.Snapshot))
	hm.RegisterChecker(health.NewOutputDirChecker(store.Snapshot))
	if o.streams == nil {
		hm.RegisterChecker(health.NewToolChecker(cfg.YTDLPBin))
	}
	if o.grabber == nil {
		hm.RegisterChecker(health.NewToolChecker(cfg.FFmpegBin))
	}
	if rc, ok := streamCache.(*cache.Redis[domain.ResolvedStream]); ok {
		hm.RegisterChecker(health.NewFuncChecker("redis", health.StatusDegraded, rc.HealthCheck))
	}

	rt = &Runtime{Settings: store, Engine: eng, History: history, CacheBackend: backend}

	var app *App
	srv, err := api.New(api.Deps{
		Engine:   eng,
		Settings: store,
		Events:   history,
		Locator:  locator,
		Sun:      gate,
		Health:   hm,
		Metrics:  promhttp.Handler(),
		Quit:     func() { app.Quit() },
		Version:  o.version,
		Tracing:  cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("build api: %w", err)
	}

	mgr, err := NewManager(DefaultServerConfig(cfg.Listen), Deps{Handler: srv.Handler()})
	if err != nil {
		return nil, err
	}
	for _, c := range cleanups {
		mgr.RegisterShutdownHook(c.name, c.hook)
	}

	app = NewApp(logger, mgr, store, map[string]Runner{
		"engine":   eng,
		"notifier": dispatcher,
	})
	rt.App = app
	rt.Manager = mgr

	logger.Info().
		Str("event", "daemon.bootstrapped").
		Str("data_dir", cfg.DataDir).
		Str("listen", cfg.Listen).
		Str("cache", backend).
		Int("notifiers", len(notifiers)).
		Msg("runtime wired")
	return rt, nil
}

// openCache prefers Redis when configured and falls back to memory when it is
// unreachable.
func openCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (cache.Cache[domain.ResolvedStream], string, ShutdownHook) {
	if rcfg, ok := cfg.Redis(); ok {
		rcfg.Prefix = redisKeyPrefix
		rc, err := cache.NewRedis[domain.ResolvedStream](ctx, rcfg, xglog.WithComponent("cache"))
		if err == nil {
			return rc, CacheRedis, func(context.Context) error { return rc.Close() }
		}
		logger.Warn().
			Err(err).
			Str("event", "cache.redis_unavailable").
			Str("addr", rcfg.Addr).
			Msg("falling back to in-memory stream cache")
	}
	mc := cache.NewMemory[domain.ResolvedStream](cfg.StreamTTL)
	return mc, CacheMemory, func(context.Context) error { mc.Stop(); return nil }
}

// autoLocate fills in a missing location from IP geolocation. Failure is logged and
// the daemon keeps running without a schedule.
func autoLocate(ctx context.Context, store *settings.Store, locator api.Locator, logger zerolog.Logger) {
	if store.Snapshot().Location != nil {
		return
	}
	lctx, cancel := context.WithTimeout(ctx, 2*geo.DefaultTimeout)
	defer cancel()
	loc, err := locator.Locate(lctx)
	if err != nil {
		logger.Warn().Err(err).Str("event", "geo.auto_locate_failed").Msg("could not determine location")
		return
	}
	if _, err := store.Apply(settings.Patch{Location: &loc}); err != nil {
		logger.Warn().Err(err).Str("event", "geo.auto_locate_rejected").Msg("detected location rejected")
	}
}
