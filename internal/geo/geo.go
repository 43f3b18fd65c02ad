// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package geo estimates the observer location from the public IP address.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/platform/httpx"
	"github.com/rs/zerolog"
)

const (
	IPAPICoURL  = "https://ipapi.co/json/"
	IPAPIComURL = "http://ip-api.com/json/"

	DefaultTimeout = 5 * time.Second
)

var (
	// ErrNoLocation is returned when every provider failed.
	ErrNoLocation = errors.New("location could not be determined")
	// ErrBadResponse marks a provider answer without usable coordinates.
	ErrBadResponse = errors.New("provider returned no coordinates")
)

// Provider is one IP geolocation service.
type Provider interface {
	Name() string
	Locate(ctx context.Context) (domain.Location, error)
}

// IPAPICo queries ipapi.co.
type IPAPICo struct {
	URL    string
	Client *http.Client
}

type ipapiCoResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Country   string   `json:"country_name"`
	Timezone  string   `json:"timezone"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (p IPAPICo) Name() string { return "ipapi.co" }

func (p IPAPICo) Locate(ctx context.Context) (domain.Location, error) {
	var r ipapiCoResponse
	if err := httpx.GetJSON(ctx, p.Client, p.URL, &r); err != nil {
		return domain.Location{}, err
	}
	if r.Error {
		return domain.Location{}, fmt.Errorf("%w: %s", ErrBadResponse, r.Reason)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return domain.Location{}, ErrBadResponse
	}
	return location(*r.Latitude, *r.Longitude, r.City, r.Country, r.Timezone)
}

// IPAPICom queries ip-api.com.
type IPAPICom struct {
	URL    string
	Client *http.Client
}

type ipapiComResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

func (p IPAPICom) Name() string { return "ip-api.com" }

func (p IPAPICom) Locate(ctx context.Context) (domain.Location, error) {
	var r ipapiComResponse
	if err := httpx.GetJSON(ctx, p.Client, p.URL, &r); err != nil {
		return domain.Location{}, err
	}
	if r.Status != "success" {
		return domain.Location{}, fmt.Errorf("%w: status %q %s", ErrBadResponse, r.Status, r.Message)
	}
	return location(r.Lat, r.Lon, r.City, r.Country, r.Timezone)
}

func location(lat, lon float64, city, country, tz string) (domain.Location, error) {
	if lat == 0 && lon == 0 {
		return domain.Location{}, ErrBadResponse
	}
	var parts []string
	for _, p := range []string{city, country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	loc := domain.Location{Latitude: lat, Longitude: lon, Name: strings.Join(parts, ", "), Timezone: tz}
	if err := loc.Validate(); err != nil {
		// An unknown zone name is not fatal; fall back to the local zone.
		loc.Timezone = ""
		if err := loc.Validate(); err != nil {
			return domain.Location{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
	}
	return loc, nil
}

// Locator tries providers in order and returns the first usable answer.
type Locator struct {
	providers []Provider
	logger    zerolog.Logger
}

// NewLocator returns a Locator over providers.
func NewLocator(providers ...Provider) *Locator {
	return &Locator{providers: providers, logger: xglog.WithComponent("geo")}
}

// Default queries ipapi.co, then ip-api.com.
func Default() *Locator {
	client := httpx.NewClient(DefaultTimeout)
	return NewLocator(
		IPAPICo{URL: IPAPICoURL, Client: client},
		IPAPICom{URL: IPAPIComURL, Client: client},
	)
}

// Locate returns the first location any provider reports.
func (l *Locator) Locate(ctx context.Context) (domain.Location, error) {
	var errs []error
	for _, p := range l.providers {
		loc, err := p.Locate(ctx)
		if err == nil {
			l.logger.Info().
				Str("event", "geo.located").
				Str("provider", p.Name()).
				Str("location", loc.String()).
				Msg("location determined from IP address")
			return loc, nil
		}
		l.logger.Debug().Err(err).Str("provider", p.Name()).Msg("geolocation provider failed")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return domain.Location{}, fmt.Errorf("%w: %w", ErrNoLocation, errors.Join(errs...))
}
