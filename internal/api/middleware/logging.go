// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package middleware

import (
	"net/http"
	"time"

	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/rs/zerolog"
)

// AccessLog logs each request once it completes. Probe and scrape requests are
// logged at trace level.
func AccessLog(next http.Handler) http.Handler {
	base := xglog.WithComponent("api")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrap(w)
		next.ServeHTTP(sw, r)

		logger := xglog.WithContext(r.Context(), base)
		level := zerolog.InfoLevel
		switch {
		case quietPath(r.URL.Path):
			level = zerolog.TraceLevel
		case sw.status >= 500:
			level = zerolog.ErrorLevel
		case sw.status >= 400:
			level = zerolog.WarnLevel
		}
		logger.WithLevel(level).
			Str("event", "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Int("bytes", sw.bytes).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}

func quietPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics":
		return true
	}
	return false
}
