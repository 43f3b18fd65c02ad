// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package astro

import (
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var utc = time.UTC

func at(h, m int) time.Time {
	return time.Date(2024, 6, 21, h, m, 0, 0, utc)
}

func scheduled(mode domain.CaptureMode, window int) domain.Settings {
	s := domain.DefaultSettings()
	s.ScheduleEnabled = true
	s.CaptureMode = mode
	s.TimeWindowMinutes = window
	s.Location = &domain.Location{Latitude: 51.5, Longitude: -0.12, Timezone: "UTC"}
	return s
}

func TestIsCaptureAllowed(t *testing.T) {
	windows := []SunWindow{{Date: at(0, 0), Sunrise: at(5, 0), Sunset: at(21, 0)}}

	tests := []struct {
		name   string
		s      domain.Settings
		now    time.Time
		expect bool
	}{
		{"always ignores windows", scheduled(domain.ModeAlways, 15), at(12, 0), true},
		{"schedule disabled", func() domain.Settings { s := scheduled(domain.ModeSunsetOnly, 15); s.ScheduleEnabled = false; return s }(), at(12, 0), true},
		{"sunset inside", scheduled(domain.ModeSunsetOnly, 15), at(21, 10), true},
		{"sunset lower edge", scheduled(domain.ModeSunsetOnly, 15), at(20, 45), true},
		{"sunset upper edge", scheduled(domain.ModeSunsetOnly, 15), at(21, 15), true},
		{"sunset outside", scheduled(domain.ModeSunsetOnly, 15), at(21, 16), false},
		{"sunset only ignores sunrise", scheduled(domain.ModeSunsetOnly, 15), at(5, 0), false},
		{"sunrise minus twenty", scheduled(domain.ModeSunriseOnly, 15), at(4, 40), false},
		{"sunrise inside", scheduled(domain.ModeSunriseOnly, 15), at(5, 5), true},
		{"both sunrise", scheduled(domain.ModeBoth, 30), at(4, 31), true},
		{"both sunset", scheduled(domain.ModeBoth, 30), at(21, 29), true},
		{"both midday", scheduled(domain.ModeBoth, 30), at(12, 0), false},
		{"zero window exact", scheduled(domain.ModeSunsetOnly, 0), at(21, 0), true},
		{"zero window off by one minute", scheduled(domain.ModeSunsetOnly, 0), at(21, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, IsCaptureAllowed(tt.s, windows, tt.now))
			// Pure: same inputs, same answer.
			assert.Equal(t, tt.expect, IsCaptureAllowed(tt.s, windows, tt.now))
		})
	}
}

func TestIsCaptureAllowed_PolarNight(t *testing.T) {
	windows := []SunWindow{{Date: at(0, 0)}}
	assert.False(t, IsCaptureAllowed(scheduled(domain.ModeBoth, 60), windows, at(12, 0)))
}

func TestIsCaptureAllowed_MidnightWrap(t *testing.T) {
	s := scheduled(domain.ModeSunsetOnly, 30)
	yesterday := SunWindow{Date: at(0, 0).AddDate(0, 0, -1), Sunset: at(23, 50).AddDate(0, 0, -1)}
	today := SunWindow{Date: at(0, 0), Sunset: at(23, 50)}

	assert.True(t, IsCaptureAllowed(s, []SunWindow{yesterday, today}, at(0, 10)))
	assert.False(t, IsCaptureAllowed(s, []SunWindow{today}, at(0, 10)))
}

func TestGate_CachesPerDay(t *testing.T) {
	calls := 0
	g := NewGate(WithCalculator(func(loc domain.Location, date time.Time) SunWindow {
		calls++
		d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, utc)
		return SunWindow{Date: d, Sunrise: d.Add(5 * time.Hour), Sunset: d.Add(21 * time.Hour)}
	}))
	s := scheduled(domain.ModeSunsetOnly, 15)

	ok, err := g.Allowed(s, at(21, 5))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, calls)

	ok, err = g.Allowed(s, at(12, 0))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, calls, "same day must hit the cache")

	_, err = g.Allowed(s, at(12, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 6, calls, "date change recomputes")

	moved := s.Clone()
	moved.Location.Latitude = 40
	_, err = g.Allowed(moved, at(12, 0).AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 9, calls, "location change recomputes")
}

func TestGate_SunriseScenario(t *testing.T) {
	s := scheduled(domain.ModeSunriseOnly, 15)
	g := NewGate()
	windows, err := g.Windows(s, at(12, 0))
	require.NoError(t, err)
	require.Len(t, windows, 3)
	rise := windows[1].Sunrise
	require.False(t, rise.IsZero())

	ok, err := g.Allowed(s, rise.Add(-20*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Allowed(s, rise.Add(10*time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGate_FailsClosedWithoutLocation(t *testing.T) {
	s := scheduled(domain.ModeBoth, 15)
	s.Location = nil

	ok, err := NewGate().Allowed(s, at(12, 0))
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestGate_InvalidLocation(t *testing.T) {
	s := scheduled(domain.ModeBoth, 15)
	s.Location.Latitude = 120

	ok, err := NewGate().Allowed(s, at(12, 0))
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrScheduling)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestCompute_London(t *testing.T) {
	loc := domain.Location{Latitude: 51.5074, Longitude: -0.1278, Timezone: "Europe/London"}
	w := Compute(loc, time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC))

	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	wantRise := time.Date(2024, 6, 21, 4, 43, 0, 0, london)
	wantSet := time.Date(2024, 6, 21, 21, 21, 0, 0, london)

	assert.WithinDuration(t, wantRise, w.Sunrise, 5*time.Minute)
	assert.WithinDuration(t, wantSet, w.Sunset, 5*time.Minute)
	assert.Equal(t, "Europe/London", w.Sunrise.Location().String())
}

func TestCompute_PolarNight(t *testing.T) {
	loc := domain.Location{Latitude: 89, Longitude: 0, Timezone: "UTC"}
	w := Compute(loc, time.Date(2024, 12, 21, 12, 0, 0, 0, time.UTC))
	assert.True(t, w.Sunrise.IsZero())
	assert.True(t, w.Sunset.IsZero())
}
