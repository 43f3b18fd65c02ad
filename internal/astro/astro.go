// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package astro decides whether a capture may run given the sun schedule.
package astro

import (
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/nathan-osman/go-sunrise"
)

// SunWindow holds the sun events of one local calendar day. Sunrise or Sunset is zero
// when the event does not happen that day (polar day or night).
type SunWindow struct {
	Date    time.Time `json:"date"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

// Compute returns the sun events for the local calendar day containing date.
func Compute(loc domain.Location, date time.Time) SunWindow {
	tz := loc.TimeLocation()
	local := date.In(tz)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)

	rise, set := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, day.Year(), day.Month(), day.Day())
	w := SunWindow{Date: day}
	if !rise.IsZero() {
		w.Sunrise = rise.In(tz)
	}
	if !set.IsZero() {
		w.Sunset = set.In(tz)
	}
	return w
}

// IsCaptureAllowed reports whether now falls inside an enabled sun window. It has no
// side effects. windows should cover the days around now so that a window crossing
// midnight is honoured.
func IsCaptureAllowed(s domain.Settings, windows []SunWindow, now time.Time) bool {
	if !s.ScheduleEnabled || s.CaptureMode == domain.ModeAlways {
		return true
	}
	w := s.TimeWindow()
	for _, sw := range windows {
		if s.CaptureMode.IncludesSunrise() && within(now, sw.Sunrise, w) {
			return true
		}
		if s.CaptureMode.IncludesSunset() && within(now, sw.Sunset, w) {
			return true
		}
	}
	return false
}

// within is inclusive at both edges.
func within(now, event time.Time, w time.Duration) bool {
	if event.IsZero() {
		return false
	}
	return !now.Before(event.Add(-w)) && !now.After(event.Add(w))
}
