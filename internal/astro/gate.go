// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package astro

import (
	"sync"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/rs/zerolog"
)

// Calculator computes the sun events of one day. Compute is the production value.
type Calculator func(loc domain.Location, date time.Time) SunWindow

// Gate caches the sun windows around the current local day and evaluates
// IsCaptureAllowed against them.
type Gate struct {
	mu     sync.Mutex
	calc   Calculator
	logger zerolog.Logger

	loc     domain.Location
	day     string
	windows []SunWindow
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithCalculator replaces the sun calculation.
func WithCalculator(c Calculator) GateOption {
	return func(g *Gate) { g.calc = c }
}

// NewGate creates a gate using go-sunrise.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		calc:   Compute,
		logger: xglog.WithComponent("astro"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Allowed evaluates the gate for now. A missing or invalid location while the schedule
// is enabled yields (false, err): the gate fails closed.
func (g *Gate) Allowed(s domain.Settings, now time.Time) (bool, error) {
	if !s.ScheduleEnabled || s.CaptureMode == domain.ModeAlways {
		return true, nil
	}
	windows, err := g.Windows(s, now)
	if err != nil {
		return false, err
	}
	return IsCaptureAllowed(s, windows, now), nil
}

// Windows returns the sun windows of the previous, current and next local day. They
// are recomputed only when the local date or the location changes.
func (g *Gate) Windows(s domain.Settings, now time.Time) ([]SunWindow, error) {
	if s.Location == nil {
		return nil, &domain.ConfigurationError{Field: "location", Reason: "location is required when the schedule is enabled"}
	}
	loc := *s.Location
	if err := loc.Validate(); err != nil {
		return nil, &domain.SchedulingError{Reason: "cannot compute sun times", Err: err}
	}

	local := now.In(loc.TimeLocation())
	day := local.Format(time.DateOnly)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.windows != nil && g.day == day && g.loc == loc {
		return append([]SunWindow(nil), g.windows...), nil
	}

	windows := []SunWindow{
		g.calc(loc, local.AddDate(0, 0, -1)),
		g.calc(loc, local),
		g.calc(loc, local.AddDate(0, 0, 1)),
	}
	g.loc, g.day, g.windows = loc, day, windows

	today := windows[1]
	ev := g.logger.Info().
		Str("event", "astro.windows_computed").
		Str("date", day).
		Str("location", loc.String())
	if !today.Sunrise.IsZero() {
		ev = ev.Time(xglog.FieldSunrise, today.Sunrise)
	}
	if !today.Sunset.IsZero() {
		ev = ev.Time(xglog.FieldSunset, today.Sunset)
	}
	ev.Msg("sun windows updated")
	return append([]SunWindow(nil), windows...), nil
}
