// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldTickID    = "tick_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldState     = "state"
	FieldOutcome   = "outcome"
	FieldPID       = "pid"

	// Media / stream fields
	FieldSourceURL  = "source_url"
	FieldResolution = "resolution"
	FieldFormatID   = "format_id"
	FieldHeight     = "height"
	FieldPath       = "path"

	// Schedule fields
	FieldMode     = "mode"
	FieldSunrise  = "sunrise"
	FieldSunset   = "sunset"
	FieldInterval = "interval_s"
)
