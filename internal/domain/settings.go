// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
)

// Interval bounds in seconds.
const (
	MinIntervalSeconds = 5
	MaxIntervalSeconds = 60
)

// Defaults carried over from the desktop app.
const (
	DefaultOutputDirectory   = "screenshots"
	DefaultIntervalSeconds   = 60
	DefaultTimeWindowMinutes = 30
)

// Resolution is the requested stream quality.
type Resolution string

const (
	Resolution480p  Resolution = "480p"
	Resolution720p  Resolution = "720p"
	Resolution1080p Resolution = "1080p"
	ResolutionBest  Resolution = "best"
)

// ParseResolution accepts "480p", "720p", "1080p" and "best" (case-insensitive, the
// trailing "p" is optional).
func ParseResolution(s string) (Resolution, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v != "" && v != "best" && !strings.HasSuffix(v, "p") {
		v += "p"
	}
	switch r := Resolution(v); r {
	case Resolution480p, Resolution720p, Resolution1080p, ResolutionBest:
		return r, nil
	}
	return "", &ConfigurationError{Field: "resolution", Reason: fmt.Sprintf("unsupported resolution %q", s)}
}

// Height returns the target frame height, or 0 for ResolutionBest.
func (r Resolution) Height() int {
	switch r {
	case Resolution480p:
		return 480
	case Resolution720p:
		return 720
	case Resolution1080p:
		return 1080
	}
	return 0
}

// CaptureMode selects which sun events gate captures when scheduling is enabled.
type CaptureMode string

const (
	ModeAlways      CaptureMode = "always"
	ModeSunriseOnly CaptureMode = "sunrise"
	ModeSunsetOnly  CaptureMode = "sunset"
	ModeBoth        CaptureMode = "both"
)

// ParseCaptureMode accepts the canonical names plus the long forms used by the
// desktop menu ("sunrise_only", "sunset_only").
func ParseCaptureMode(s string) (CaptureMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "always", "":
		return ModeAlways, nil
	case "sunrise", "sunrise_only", "sunriseonly":
		return ModeSunriseOnly, nil
	case "sunset", "sunset_only", "sunsetonly":
		return ModeSunsetOnly, nil
	case "both":
		return ModeBoth, nil
	}
	return "", &ConfigurationError{Field: "capture_mode", Reason: fmt.Sprintf("unsupported capture mode %q", s)}
}

func (m CaptureMode) IncludesSunrise() bool { return m == ModeSunriseOnly || m == ModeBoth }
func (m CaptureMode) IncludesSunset() bool  { return m == ModeSunsetOnly || m == ModeBoth }

// Location is an observer position. Timezone is an IANA name; empty means the process
// local zone.
type Location struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
	Name      string  `yaml:"name,omitempty" json:"name,omitempty"`
	Timezone  string  `yaml:"timezone,omitempty" json:"timezone,omitempty"`
}

// Validate reports coordinates outside the valid ranges or an unknown timezone.
func (l Location) Validate() error {
	if math.IsNaN(l.Latitude) || l.Latitude < -90 || l.Latitude > 90 {
		return &ConfigurationError{Field: "location.latitude", Reason: fmt.Sprintf("latitude %v out of range [-90, 90]", l.Latitude)}
	}
	if math.IsNaN(l.Longitude) || l.Longitude < -180 || l.Longitude > 180 {
		return &ConfigurationError{Field: "location.longitude", Reason: fmt.Sprintf("longitude %v out of range [-180, 180]", l.Longitude)}
	}
	if l.Timezone != "" {
		if _, err := time.LoadLocation(l.Timezone); err != nil {
			return &ConfigurationError{Field: "location.timezone", Reason: "unknown timezone", Err: err}
		}
	}
	return nil
}

// TimeLocation returns the zone sun times are expressed in.
func (l Location) TimeLocation() *time.Location {
	if l.Timezone != "" {
		if loc, err := time.LoadLocation(l.Timezone); err == nil {
			return loc
		}
	}
	return time.Local
}

func (l Location) String() string {
	if l.Name != "" {
		return l.Name
	}
	return fmt.Sprintf("%.4f, %.4f", l.Latitude, l.Longitude)
}

// Settings is the user-facing configuration of the capture pipeline.
type Settings struct {
	SourceURL         string      `yaml:"source_url,omitempty" json:"sourceUrl"`
	OutputDirectory   string      `yaml:"output_directory" json:"outputDirectory"`
	IntervalSeconds   int         `yaml:"interval_seconds" json:"intervalSeconds"`
	Resolution        Resolution  `yaml:"resolution" json:"resolution"`
	CaptureMode       CaptureMode `yaml:"capture_mode" json:"captureMode"`
	ScheduleEnabled   bool        `yaml:"schedule_enabled" json:"scheduleEnabled"`
	TimeWindowMinutes int         `yaml:"time_window_minutes" json:"timeWindowMinutes"`
	Location          *Location   `yaml:"location,omitempty" json:"location,omitempty"`
	Paused            bool        `yaml:"paused" json:"paused"`
}

// DefaultSettings returns the first-run configuration.
func DefaultSettings() Settings {
	return Settings{
		OutputDirectory:   DefaultOutputDirectory,
		IntervalSeconds:   DefaultIntervalSeconds,
		Resolution:        Resolution1080p,
		CaptureMode:       ModeAlways,
		TimeWindowMinutes: DefaultTimeWindowMinutes,
	}
}

// Interval is the tick spacing.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// TimeWindow is the half-width of a sun event window.
func (s Settings) TimeWindow() time.Duration {
	return time.Duration(s.TimeWindowMinutes) * time.Minute
}

// Clone returns a deep copy so snapshots never alias the owner's location.
func (s Settings) Clone() Settings {
	if s.Location != nil {
		loc := *s.Location
		s.Location = &loc
	}
	return s
}

// Equal compares all fields, including the location value.
func (s Settings) Equal(o Settings) bool {
	a, b := s, o
	a.Location, b.Location = nil, nil
	if a != b {
		return false
	}
	switch {
	case s.Location == nil && o.Location == nil:
		return true
	case s.Location == nil || o.Location == nil:
		return false
	}
	return *s.Location == *o.Location
}

// Validate enforces the settings invariants. An empty source URL is allowed (capture
// reports a configuration error at tick time instead).
func (s Settings) Validate() error {
	if s.IntervalSeconds < MinIntervalSeconds || s.IntervalSeconds > MaxIntervalSeconds {
		return &ConfigurationError{
			Field:  "interval_seconds",
			Reason: fmt.Sprintf("interval %ds outside [%d, %d]", s.IntervalSeconds, MinIntervalSeconds, MaxIntervalSeconds),
		}
	}
	if s.TimeWindowMinutes < 0 {
		return &ConfigurationError{Field: "time_window_minutes", Reason: "time window must not be negative"}
	}
	if strings.TrimSpace(s.OutputDirectory) == "" {
		return &ConfigurationError{Field: "output_directory", Reason: "output directory is required"}
	}
	if _, err := ParseResolution(string(s.Resolution)); err != nil {
		return err
	}
	if _, err := ParseCaptureMode(string(s.CaptureMode)); err != nil {
		return err
	}
	if s.SourceURL != "" {
		if err := ValidateSourceURL(s.SourceURL); err != nil {
			return err
		}
	}
	if s.ScheduleEnabled && s.Location == nil {
		return &ConfigurationError{Field: "location", Reason: "location is required when the schedule is enabled"}
	}
	if s.Location != nil {
		if err := s.Location.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Normalize repairs values read from disk so the invariants hold. It returns the
// repaired settings and one note per change.
func (s Settings) Normalize() (Settings, []string) {
	var notes []string
	switch {
	case s.IntervalSeconds == 0:
		s.IntervalSeconds = DefaultIntervalSeconds
		notes = append(notes, "interval missing, using default")
	case s.IntervalSeconds < MinIntervalSeconds:
		notes = append(notes, fmt.Sprintf("interval %ds clamped to %ds", s.IntervalSeconds, MinIntervalSeconds))
		s.IntervalSeconds = MinIntervalSeconds
	case s.IntervalSeconds > MaxIntervalSeconds:
		notes = append(notes, fmt.Sprintf("interval %ds clamped to %ds", s.IntervalSeconds, MaxIntervalSeconds))
		s.IntervalSeconds = MaxIntervalSeconds
	}
	if s.TimeWindowMinutes < 0 {
		notes = append(notes, "negative time window reset to default")
		s.TimeWindowMinutes = DefaultTimeWindowMinutes
	}
	if strings.TrimSpace(s.OutputDirectory) == "" {
		s.OutputDirectory = DefaultOutputDirectory
		notes = append(notes, "output directory missing, using default")
	}
	if r, err := ParseResolution(string(s.Resolution)); err != nil {
		notes = append(notes, fmt.Sprintf("resolution %q reset to %s", s.Resolution, Resolution1080p))
		s.Resolution = Resolution1080p
	} else {
		s.Resolution = r
	}
	if m, err := ParseCaptureMode(string(s.CaptureMode)); err != nil {
		notes = append(notes, fmt.Sprintf("capture mode %q reset to %s", s.CaptureMode, ModeAlways))
		s.CaptureMode = ModeAlways
	} else {
		s.CaptureMode = m
	}
	if s.Location != nil && s.Location.Validate() != nil {
		notes = append(notes, "invalid location dropped")
		s.Location = nil
	}
	if s.ScheduleEnabled && s.Location == nil {
		notes = append(notes, "schedule disabled: no location")
		s.ScheduleEnabled = false
	}
	return s, notes
}

var youtubeHosts = map[string]struct{}{
	"youtube.com":     {},
	"www.youtube.com": {},
	"m.youtube.com":   {},
	"youtu.be":        {},
}

// ValidateSourceURL accepts http(s) URLs on a YouTube host.
func ValidateSourceURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return &ConfigurationError{Field: "source_url", Reason: "unparseable URL", Err: err}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigurationError{Field: "source_url", Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	if _, ok := youtubeHosts[strings.ToLower(u.Hostname())]; !ok {
		return &ConfigurationError{Field: "source_url", Reason: fmt.Sprintf("host %q is not a YouTube host", u.Hostname())}
	}
	return nil
}
