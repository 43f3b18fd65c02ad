// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api is the local control surface of the daemon: probes, metrics and the
// v1 JSON API used by streamshot ctl.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ManuGH/streamshot/internal/api/middleware"
	"github.com/ManuGH/streamshot/internal/astro"
	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/engine"
	"github.com/ManuGH/streamshot/internal/health"
	"github.com/ManuGH/streamshot/internal/settings"
	"github.com/go-chi/chi/v5"
)

// Engine is the capture engine as seen by the API.
type Engine interface {
	Status() engine.Status
	CaptureNow(ctx context.Context) (engine.CaptureResult, error)
}

// SettingsStore owns the user settings.
type SettingsStore interface {
	Snapshot() domain.Settings
	Apply(p settings.Patch) (domain.Settings, error)
	SetPaused(paused bool) (domain.Settings, error)
}

// EventLog serves recent capture events.
type EventLog interface {
	Recent(limit int) []domain.CaptureEvent
}

// Locator estimates the observer location.
type Locator interface {
	Locate(ctx context.Context) (domain.Location, error)
}

// SunSchedule exposes the sun windows around now.
type SunSchedule interface {
	Windows(s domain.Settings, now time.Time) ([]astro.SunWindow, error)
}

// Deps wires the server. Locator, Sun, Metrics and Quit are optional.
type Deps struct {
	Engine   Engine
	Settings SettingsStore
	Events   EventLog
	Locator  Locator
	Sun      SunSchedule
	Health   *health.Manager
	Metrics  http.Handler
	// Quit asks the daemon to shut down. It must not block.
	Quit func()

	Version        string
	Tracing        bool
	AllowedOrigins []string
}

// Server serves the control API.
type Server struct {
	deps    Deps
	started time.Time
	now     func() time.Time
}

var ErrMissingDeps = errors.New("api: engine, settings and events are required")

func New(deps Deps) (*Server, error) {
	if deps.Engine == nil || deps.Settings == nil || deps.Events == nil {
		return nil, ErrMissingDeps
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	return &Server{deps: deps, started: time.Now(), now: time.Now}, nil
}

// Handler returns the routed handler with the middleware stack.
func (s *Server) Handler() http.Handler {
	cfg := middleware.StackConfig{RateLimit: true, AllowedOrigins: s.deps.AllowedOrigins}
	if s.deps.Tracing {
		cfg.TracingOperation = "streamshot.api"
	}
	r := middleware.NewRouter(cfg)

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/settings", s.handleGetSettings)
		r.Patch("/settings", s.handlePatchSettings)
		r.Post("/pause", s.handlePause(true))
		r.Post("/resume", s.handlePause(false))
		r.Get("/events", s.handleEvents)
		r.Group(func(r chi.Router) {
			r.Use(middleware.ActionRateLimit())
			r.Post("/capture", s.handleCapture)
			r.Post("/location/detect", s.handleDetectLocation)
		})
		r.Post("/quit", s.handleQuit)
	})
	return r
}
