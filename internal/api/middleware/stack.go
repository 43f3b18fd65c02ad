// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import "github.com/go-chi/chi/v5"

// StackConfig selects the optional middleware of the control API.
type StackConfig struct {
	TracingOperation string // empty disables tracing
	AllowedOrigins   []string
	RateLimit        bool
}

// NewRouter returns a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	ApplyStack(r, cfg)
	return r
}

// ApplyStack installs the middleware outermost first.
func ApplyStack(r chi.Router, cfg StackConfig) {
	r.Use(Recoverer)
	r.Use(RequestID)
	r.Use(Metrics)
	if cfg.TracingOperation != "" {
		r.Use(OTelHTTP(cfg.TracingOperation))
	}
	r.Use(AccessLog)
	if cfg.RateLimit {
		r.Use(APIRateLimit())
	}
	r.Use(CSRFProtection(cfg.AllowedOrigins))
}
