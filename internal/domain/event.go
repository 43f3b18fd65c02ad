// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import "time"

// ResolvedStream is a direct media URL obtained for a watch URL at a given quality.
// Platform-issued media URLs expire; callers must check freshness against ResolvedAt.
type ResolvedStream struct {
	SourceURL      string     `json:"sourceUrl"`
	Resolution     Resolution `json:"resolution"`
	DirectMediaURL string     `json:"directMediaUrl"`
	ResolvedAt     time.Time  `json:"resolvedAt"`
	Title          string     `json:"title,omitempty"`
	FormatID       string     `json:"formatId,omitempty"`
	Height         int        `json:"height,omitempty"`
}

// FreshAt reports whether the stream may still be used at now.
func (r ResolvedStream) FreshAt(now time.Time, ttl time.Duration) bool {
	if r.DirectMediaURL == "" || r.ResolvedAt.IsZero() {
		return false
	}
	age := now.Sub(r.ResolvedAt)
	return age >= 0 && age < ttl
}

// Outcome is the result of a single engine tick.
type Outcome string

const (
	OutcomeCaptured      Outcome = "captured"
	OutcomeSkippedByGate Outcome = "skipped_gate"
	OutcomeSkippedPaused Outcome = "skipped_paused"
	OutcomeFailed        Outcome = "failed"
)

// CaptureEvent describes one tick. Events are not persisted.
type CaptureEvent struct {
	ID          string        `json:"id"`
	Timestamp   time.Time     `json:"timestamp"`
	Outcome     Outcome       `json:"outcome"`
	FilePath    string        `json:"filePath,omitempty"`
	ErrorKind   ErrorKind     `json:"errorKind,omitempty"`
	ErrorDetail string        `json:"errorDetail,omitempty"`
	SourceURL   string        `json:"sourceUrl,omitempty"`
	Resolution  Resolution    `json:"resolution,omitempty"`
	Duration    time.Duration `json:"durationNs,omitempty"`
}

// Notable reports whether the event deserves a user-facing notification.
func (e CaptureEvent) Notable() bool {
	return e.Outcome == OutcomeFailed || e.ErrorKind != KindNone
}
