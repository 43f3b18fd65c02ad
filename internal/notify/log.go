// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"

	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/rs/zerolog"
)

// LogNotifier writes notable events as user-facing log lines.
type LogNotifier struct {
	logger zerolog.Logger
}

var _ Notifier = LogNotifier{}

func NewLogNotifier(logger zerolog.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (n LogNotifier) Name() string { return "log" }

// Wants reports whether ev is a failure or a skip with an error.
func (n LogNotifier) Wants(ev domain.CaptureEvent) bool { return ev.Notable() }

func (n LogNotifier) Notify(ctx context.Context, ev domain.CaptureEvent) error {
	logger := xglog.WithContext(ctx, n.logger)
	logger.Warn().
		Str("event", "notify.capture").
		Str(xglog.FieldTickID, ev.ID).
		Str(xglog.FieldOutcome, string(ev.Outcome)).
		Str("error_kind", string(ev.ErrorKind)).
		Time("at", ev.Timestamp).
		Msg(Title(ev) + ": " + Message(ev))
	return nil
}
