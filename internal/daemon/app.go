// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Runner is a long-lived subsystem owned by the App.
type Runner interface {
	Run(ctx context.Context) error
}

// Reloader re-reads the settings file on demand and watches it for edits.
type Reloader interface {
	Reload(ctx context.Context) error
	StartWatcher(ctx context.Context) error
}

// App owns the runtime lifecycle (settings watcher, engine, notifiers) and delegates
// the HTTP server and shutdown hooks to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	settings     Reloader
	runners      map[string]Runner
	reloadSignal os.Signal

	quitOnce sync.Once
	quit     chan struct{}
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, settings Reloader, runners map[string]Runner) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		settings:     settings,
		runners:      runners,
		reloadSignal: syscall.SIGHUP,
		quit:         make(chan struct{}),
	}
}

// Quit asks Run to return. It never blocks and may be called more than once.
func (a *App) Quit() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// Run starts every subsystem and blocks until ctx is cancelled, Quit is called or a
// subsystem fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// The watcher is best-effort: edits still arrive through the API.
	if a.settings != nil {
		if err := a.settings.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "settings.watcher_start_failed").Msg("failed to start settings watcher")
		}
	}

	if a.settings != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "settings.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading settings")
					if err := a.settings.Reload(ctx); err != nil {
						a.logger.Warn().Err(err).Str("event", "settings.reload_failed").Msg("settings reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-a.quit:
			a.logger.Info().Str("event", "daemon.quit").Msg("quit requested")
			return errQuit
		}
	})

	for name, r := range a.runners {
		g.Go(func() error {
			if err := r.Run(ctx); err != nil {
				a.logger.Error().Err(err).Str("runner", name).Msg("subsystem failed")
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
