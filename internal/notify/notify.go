// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package notify fans capture events out to the user: the log, an in-memory history
// for the control API and an optional desktop hook command.
package notify

import (
	"context"
	"fmt"

	"github.com/ManuGH/streamshot/internal/domain"
)

// Notifier delivers one event. Implementations decide which events they care about.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev domain.CaptureEvent) error
}

// Filter is implemented by notifiers that only handle some events.
type Filter interface {
	Wants(ev domain.CaptureEvent) bool
}

// Title and Message render ev for humans.
func Title(ev domain.CaptureEvent) string {
	switch ev.Outcome {
	case domain.OutcomeCaptured:
		return "streamshot: frame captured"
	case domain.OutcomeFailed:
		return "streamshot: capture failed"
	default:
		return "streamshot: capture skipped"
	}
}

func Message(ev domain.CaptureEvent) string {
	switch {
	case ev.Outcome == domain.OutcomeCaptured:
		return ev.FilePath
	case ev.ErrorDetail != "":
		return fmt.Sprintf("%s error: %s", ev.ErrorKind, ev.ErrorDetail)
	case ev.Outcome == domain.OutcomeSkippedPaused:
		return "capturing is paused"
	default:
		return "outside the configured sun windows"
	}
}
