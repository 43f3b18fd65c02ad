// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/engine"
	"github.com/ManuGH/streamshot/internal/geo"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/settings"
)

// APIError is the body of every error response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeInvalidSetting = "INVALID_SETTING"
	CodeUnavailable    = "UNAVAILABLE"
	CodeNoLocation     = "LOCATION_UNAVAILABLE"
	CodeInternal       = "INTERNAL"
)

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger := xglog.WithContext(r.Context(), xglog.WithComponent("api"))
		logger.Error().Err(err).Int("status", code).Msg("failed to encode JSON response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, apiErr APIError) {
	apiErr.RequestID = xglog.RequestIDFromContext(r.Context())
	writeJSON(w, r, status, apiErr)
}

// respondErr maps err onto a status and error code.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *domain.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		respondError(w, r, http.StatusBadRequest, APIError{Code: CodeInvalidSetting, Message: err.Error(), Field: cfgErr.Field})
	case errors.Is(err, settings.ErrUnknownSettingsField):
		respondError(w, r, http.StatusBadRequest, APIError{Code: CodeBadRequest, Message: err.Error()})
	case errors.Is(err, engine.ErrStopped), errors.Is(err, settings.ErrStoreClosed):
		respondError(w, r, http.StatusServiceUnavailable, APIError{Code: CodeUnavailable, Message: err.Error()})
	case errors.Is(err, geo.ErrNoLocation):
		respondError(w, r, http.StatusBadGateway, APIError{Code: CodeNoLocation, Message: err.Error()})
	default:
		logger := xglog.WithContext(r.Context(), xglog.WithComponent("api"))
		logger.Error().Err(err).Str("event", "api.internal_error").Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, APIError{Code: CodeInternal, Message: "internal error"})
	}
}
