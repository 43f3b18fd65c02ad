// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"strings"

	"github.com/ManuGH/streamshot/internal/domain"
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	SourceURL         *string          `json:"sourceUrl,omitempty"`
	OutputDirectory   *string          `json:"outputDirectory,omitempty"`
	IntervalSeconds   *int             `json:"intervalSeconds,omitempty"`
	Resolution        *string          `json:"resolution,omitempty"`
	CaptureMode       *string          `json:"captureMode,omitempty"`
	ScheduleEnabled   *bool            `json:"scheduleEnabled,omitempty"`
	ToggleSchedule    bool             `json:"toggleSchedule,omitempty"`
	TimeWindowMinutes *int             `json:"timeWindowMinutes,omitempty"`
	Location          *domain.Location `json:"location,omitempty"`
	ClearLocation     bool             `json:"clearLocation,omitempty"`
	Paused            *bool            `json:"paused,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Apply mutates s. Enum values are parsed here so callers get a ConfigurationError
// naming the field.
func (p Patch) Apply(s *domain.Settings) error {
	if p.SourceURL != nil {
		u := strings.TrimSpace(*p.SourceURL)
		if u != "" {
			if err := domain.ValidateSourceURL(u); err != nil {
				return err
			}
		}
		s.SourceURL = u
	}
	if p.OutputDirectory != nil {
		s.OutputDirectory = strings.TrimSpace(*p.OutputDirectory)
	}
	if p.IntervalSeconds != nil {
		s.IntervalSeconds = *p.IntervalSeconds
	}
	if p.Resolution != nil {
		r, err := domain.ParseResolution(*p.Resolution)
		if err != nil {
			return err
		}
		s.Resolution = r
	}
	if p.CaptureMode != nil {
		m, err := domain.ParseCaptureMode(*p.CaptureMode)
		if err != nil {
			return err
		}
		s.CaptureMode = m
	}
	if p.TimeWindowMinutes != nil {
		s.TimeWindowMinutes = *p.TimeWindowMinutes
	}
	if p.ClearLocation {
		s.Location = nil
		s.ScheduleEnabled = false
	}
	if p.Location != nil {
		loc := *p.Location
		s.Location = &loc
	}
	if p.ScheduleEnabled != nil {
		s.ScheduleEnabled = *p.ScheduleEnabled
	}
	if p.ToggleSchedule {
		s.ScheduleEnabled = !s.ScheduleEnabled
	}
	if p.Paused != nil {
		s.Paused = *p.Paused
	}
	return nil
}

// Apply is shorthand for Update(p.Apply).
func (s *Store) Apply(p Patch) (domain.Settings, error) {
	return s.Update(p.Apply)
}

// SetPaused pauses or resumes capturing.
func (s *Store) SetPaused(paused bool) (domain.Settings, error) {
	return s.Apply(Patch{Paused: &paused})
}
