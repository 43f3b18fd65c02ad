// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ManuGH/streamshot/internal/astro"
	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/engine"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/settings"
)

const (
	maxBodyBytes     = 64 << 10
	defaultEventsMax = 20
)

// StatusResponse is the body of GET /api/v1/status.
type StatusResponse struct {
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	Engine        engine.Status     `json:"engine"`
	Settings      domain.Settings   `json:"settings"`
	SunWindows    []astro.SunWindow `json:"sunWindows,omitempty"`
	CaptureOpen   *bool             `json:"captureOpen,omitempty"`
	ScheduleError string            `json:"scheduleError,omitempty"`
}

// CaptureResponse is the body of POST /api/v1/capture.
type CaptureResponse struct {
	Result engine.CaptureResult `json:"result"`
}

// LocationResponse is the body of POST /api/v1/location/detect.
type LocationResponse struct {
	Location domain.Location  `json:"location"`
	Applied  bool             `json:"applied"`
	Settings *domain.Settings `json:"settings,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	st := s.deps.Settings.Snapshot()
	resp := StatusResponse{
		Version:       s.deps.Version,
		UptimeSeconds: int64(now.Sub(s.started) / time.Second),
		Engine:        s.deps.Engine.Status(),
		Settings:      st,
	}
	if s.deps.Sun != nil && st.Location != nil {
		windows, err := s.deps.Sun.Windows(st, now)
		if err != nil {
			resp.ScheduleError = err.Error()
		} else {
			resp.SunWindows = windows
			open := astro.IsCaptureAllowed(st, windows, now)
			resp.CaptureOpen = &open
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.deps.Settings.Snapshot())
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	var p settings.Patch
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		respondError(w, r, http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: fmt.Sprintf("invalid settings patch: %v", err)})
		return
	}
	if p.Empty() {
		respondError(w, r, http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: "settings patch is empty"})
		return
	}
	next, err := s.deps.Settings.Apply(p)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, next)
}

func (s *Server) handlePause(paused bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next, err := s.deps.Settings.SetPaused(paused)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, next)
	}
}

func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	res, err := s.deps.Engine.CaptureNow(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, CaptureResponse{Result: res})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsMax
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, r, http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events := s.deps.Events.Recent(limit)
	if events == nil {
		events = []domain.CaptureEvent{}
	}
	writeJSON(w, r, http.StatusOK, events)
}

// handleDetectLocation looks the location up and stores it unless apply=false.
func (s *Server) handleDetectLocation(w http.ResponseWriter, r *http.Request) {
	if s.deps.Locator == nil {
		respondError(w, r, http.StatusNotImplemented, APIError{Code: CodeUnavailable, Message: "location detection is not configured"})
		return
	}
	loc, err := s.deps.Locator.Locate(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	resp := LocationResponse{Location: loc}
	if r.URL.Query().Get("apply") != "false" {
		next, err := s.deps.Settings.Apply(settings.Patch{Location: &loc})
		if err != nil {
			respondErr(w, r, err)
			return
		}
		resp.Applied = true
		resp.Settings = &next
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	if s.deps.Quit == nil {
		respondError(w, r, http.StatusNotImplemented, APIError{Code: CodeUnavailable, Message: "quit is not supported"})
		return
	}
	logger := xglog.WithContext(r.Context(), xglog.WithComponent("api"))
	logger.Info().Str("event", "api.quit").Msg("shutdown requested via API")
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "shutting down"})
	s.deps.Quit()
}
