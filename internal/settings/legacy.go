// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ManuGH/streamshot/internal/domain"
)

// legacyIntervals maps the interval labels written by the desktop app's menu.
var legacyIntervals = map[string]int{
	"1 second":    1,
	"2 seconds":   2,
	"3 seconds":   3,
	"4 seconds":   4,
	"5 seconds":   5,
	"10 seconds":  10,
	"15 seconds":  15,
	"30 seconds":  30,
	"45 seconds":  45,
	"1 minute":    60,
	"1:15 minute": 75,
	"1:30 minute": 90,
	"1:45 minute": 105,
	"2 minutes":   120,
	"3 minutes":   180,
	"4 minutes":   240,
	"5 minutes":   300,
	"6 minutes":   360,
	"7 minutes":   420,
	"8 minutes":   480,
	"9 minutes":   540,
	"10 minutes":  600,
	"15 minutes":  900,
	"30 minutes":  1800,
}

type legacyLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

type legacyConfig struct {
	YoutubeURLs         []string        `json:"youtube_urls"`
	YoutubeURL          string          `json:"youtube_url"`
	OutputPath          string          `json:"output_path"`
	Interval            json.RawMessage `json:"interval"`
	Resolution          string          `json:"resolution"`
	PreferredResolution string          `json:"preferred_resolution"`
	Location            *legacyLocation `json:"location"`
	ScheduleEnabled     bool            `json:"schedule_enabled"`
	TimeWindow          json.RawMessage `json:"time_window"`
	OnlySunsets         bool            `json:"only_sunsets"`
	OnlySunrises        bool            `json:"only_sunrises"`
}

// ImportLegacy reads a config.json written by the desktop app and converts it. The
// result is normalised; notes lists every value that had to be repaired.
func ImportLegacy(path string) (domain.Settings, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Settings{}, nil, fmt.Errorf("read legacy config: %w", err)
	}
	var lc legacyConfig
	if err := json.Unmarshal(data, &lc); err != nil {
		return domain.Settings{}, nil, fmt.Errorf("decode legacy config: %w", err)
	}

	s := domain.DefaultSettings()
	switch {
	case len(lc.YoutubeURLs) > 0:
		s.SourceURL = strings.TrimSpace(lc.YoutubeURLs[0])
	case lc.YoutubeURL != "":
		s.SourceURL = strings.TrimSpace(lc.YoutubeURL)
	}
	if lc.OutputPath != "" {
		s.OutputDirectory = lc.OutputPath
	}
	if v, ok := legacyInt(lc.Interval, legacyIntervals); ok {
		s.IntervalSeconds = v
	}
	if v, ok := legacyInt(lc.TimeWindow, nil); ok {
		s.TimeWindowMinutes = v
	}
	res := lc.Resolution
	if lc.PreferredResolution != "" {
		res = lc.PreferredResolution
	}
	if res != "" {
		s.Resolution = domain.Resolution(res)
	}
	// The desktop app treated 0,0 as "no location".
	if lc.Location != nil && (lc.Location.Latitude != 0 || lc.Location.Longitude != 0) {
		s.Location = &domain.Location{
			Latitude:  lc.Location.Latitude,
			Longitude: lc.Location.Longitude,
			Name:      lc.Location.Name,
		}
	}
	s.ScheduleEnabled = lc.ScheduleEnabled
	switch {
	case lc.OnlySunsets && !lc.OnlySunrises:
		s.CaptureMode = domain.ModeSunsetOnly
	case lc.OnlySunrises && !lc.OnlySunsets:
		s.CaptureMode = domain.ModeSunriseOnly
	case lc.ScheduleEnabled:
		s.CaptureMode = domain.ModeBoth
	default:
		s.CaptureMode = domain.ModeAlways
	}

	var dropped []string
	if s.SourceURL != "" && domain.ValidateSourceURL(s.SourceURL) != nil {
		dropped = append(dropped, fmt.Sprintf("source url %q dropped", s.SourceURL))
		s.SourceURL = ""
	}
	s, notes := s.Normalize()
	return s, append(dropped, notes...), nil
}

// legacyInt accepts a JSON number, a numeric string or one of the labels.
func legacyInt(raw json.RawMessage, labels map[string]int) (int, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v, true
	}
	if v, ok := labels[strings.TrimSpace(s)]; ok {
		return v, true
	}
	return 0, false
}
