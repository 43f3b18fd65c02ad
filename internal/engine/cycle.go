// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/fsutil"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// cycle runs one tick against the settings snapshot s. It never panics on tool
// failure; every outcome becomes an event.
func (e *Engine) cycle(ctx context.Context, s domain.Settings, trigger Trigger) domain.CaptureEvent {
	start := e.deps.Clock.Now()
	ev := domain.CaptureEvent{
		ID:         uuid.NewString(),
		Timestamp:  start,
		SourceURL:  s.SourceURL,
		Resolution: s.Resolution,
	}

	ctx = xglog.ContextWithTickID(ctx, ev.ID)
	ctx, span := e.deps.Tracer.Start(ctx, "engine.tick")
	span.SetAttributes(telemetry.CaptureAttributes(string(trigger), s.SourceURL, string(s.Resolution))...)
	defer span.End()

	logger := xglog.WithContext(ctx, e.logger).With().
		Str("trigger", string(trigger)).
		Logger()
	ctx = logger.WithContext(ctx)

	e.setState(StateTicking)
	ev = e.run(ctx, s, ev)
	e.setState(StateCooldown)

	ev.Duration = e.deps.Clock.Now().Sub(start)
	span.SetAttributes(attribute.String(telemetry.CaptureOutcomeKey, string(ev.Outcome)))
	if ev.Outcome == domain.OutcomeFailed {
		span.SetAttributes(telemetry.ErrorAttributes(string(ev.ErrorKind))...)
		span.SetStatus(codes.Error, ev.ErrorDetail)
	}
	logEvent(logger, ev)
	return ev
}

func (e *Engine) run(ctx context.Context, s domain.Settings, ev domain.CaptureEvent) domain.CaptureEvent {
	if s.Paused {
		ev.Outcome = domain.OutcomeSkippedPaused
		return ev
	}

	allowed, err := e.deps.Gate.Allowed(s, ev.Timestamp)
	if err != nil {
		return withError(ev, domain.OutcomeSkippedByGate, err)
	}
	if !allowed {
		ev.Outcome = domain.OutcomeSkippedByGate
		return ev
	}

	if s.SourceURL == "" {
		return withError(ev, domain.OutcomeFailed, &domain.ConfigurationError{Field: "source_url", Reason: "no stream URL configured"})
	}
	if err := fsutil.EnsureDir(s.OutputDirectory); err != nil {
		return withError(ev, domain.OutcomeFailed, &domain.ConfigurationError{Field: "output_directory", Reason: "cannot create output directory", Err: err})
	}

	e.setState(StateResolving)
	rs, err := e.deps.Resolver.Resolve(ctx, s.SourceURL, s.Resolution)
	if err != nil {
		return withError(ev, domain.OutcomeFailed, err)
	}

	outPath, err := outputPath(s.OutputDirectory, rs.Title, ev.Timestamp)
	if err != nil {
		return withError(ev, domain.OutcomeFailed, &domain.CaptureError{Path: s.OutputDirectory, Reason: "cannot prepare stream directory", Err: err})
	}

	e.setState(StateGrabbing)
	if err := e.deps.Grabber.Grab(ctx, rs.DirectMediaURL, outPath); err != nil {
		// The cached media URL may have expired; resolve again next tick.
		if ctx.Err() == nil {
			e.deps.Resolver.Invalidate(s.SourceURL)
		}
		if !errors.Is(err, domain.ErrCapture) {
			err = &domain.CaptureError{Path: outPath, Reason: "frame grab failed", Err: err}
		}
		return withError(ev, domain.OutcomeFailed, err)
	}

	ev.Outcome = domain.OutcomeCaptured
	ev.FilePath = outPath
	return ev
}

// outputPath returns <dir>/<clean title>/<timestamp>[_N].jpg, creating the title
// directory.
func outputPath(dir, title string, at time.Time) (string, error) {
	streamDir, err := fsutil.ConfineRelPath(dir, fsutil.CleanFilename(title))
	if err != nil {
		return "", err
	}
	if err := fsutil.EnsureDir(streamDir); err != nil {
		return "", err
	}
	return fsutil.UniqueFilename(streamDir, fsutil.TimestampName(at), ".jpg"), nil
}

func withError(ev domain.CaptureEvent, outcome domain.Outcome, err error) domain.CaptureEvent {
	ev.Outcome = outcome
	ev.ErrorKind = domain.KindOf(err)
	ev.ErrorDetail = err.Error()
	return ev
}

func logEvent(logger zerolog.Logger, ev domain.CaptureEvent) {
	var le *zerolog.Event
	switch ev.Outcome {
	case domain.OutcomeFailed:
		le = logger.Warn()
	case domain.OutcomeCaptured:
		le = logger.Info()
	default:
		if ev.ErrorKind != domain.KindNone {
			le = logger.Warn()
		} else {
			le = logger.Debug()
		}
	}
	le = le.Str("event", "engine.tick").
		Str(xglog.FieldOutcome, string(ev.Outcome)).
		Str(xglog.FieldSourceURL, ev.SourceURL).
		Str(xglog.FieldResolution, string(ev.Resolution)).
		Dur("duration", ev.Duration)
	if ev.FilePath != "" {
		le = le.Str(xglog.FieldPath, filepath.Clean(ev.FilePath))
	}
	if ev.ErrorKind != domain.KindNone {
		le = le.Str("error_kind", string(ev.ErrorKind)).Str("error", ev.ErrorDetail)
	}
	le.Msg("tick finished")
}
