// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine runs the capture loop: one scheduling goroutine owning the interval
// timer and a single worker performing resolve and grab for each cycle.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ManuGH/streamshot/internal/bus"
	"github.com/ManuGH/streamshot/internal/clock"
	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/media"
	"github.com/ManuGH/streamshot/internal/metrics"
	"github.com/ManuGH/streamshot/internal/settings"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// SettingsSource is the settings owner.
type SettingsSource interface {
	Snapshot() domain.Settings
	Subscribe(buffer int) (<-chan settings.Change, func())
}

// Gate decides whether the sun schedule admits a capture.
type Gate interface {
	Allowed(s domain.Settings, now time.Time) (bool, error)
}

// Resolver is the caching stream resolver.
type Resolver interface {
	Resolve(ctx context.Context, sourceURL string, res domain.Resolution) (domain.ResolvedStream, error)
	Invalidate(sourceURL string)
	Prefetch(ctx context.Context, sourceURL string, res domain.Resolution)
}

// Publisher receives every capture event without blocking the engine.
type Publisher interface {
	Offer(topic string, ev domain.CaptureEvent) int
}

// Deps are the collaborators of an Engine. Clock and Tracer are optional.
type Deps struct {
	Settings SettingsSource
	Gate     Gate
	Resolver Resolver
	Grabber  media.Grabber
	Events   Publisher
	Clock    clock.Clock
	Tracer   trace.Tracer
}

type captureRequest struct {
	reply chan CaptureResult
}

type cycleResult struct {
	event   domain.CaptureEvent
	trigger Trigger
}

// Engine is the capture scheduler.
type Engine struct {
	deps   Deps
	logger zerolog.Logger

	requests chan captureRequest
	done     chan struct{}
	runOnce  sync.Once

	mu     sync.RWMutex
	status Status
}

// New validates deps and returns an idle engine.
func New(deps Deps) (*Engine, error) {
	switch {
	case deps.Settings == nil:
		return nil, fmt.Errorf("%w: settings", ErrMissingDep)
	case deps.Gate == nil:
		return nil, fmt.Errorf("%w: gate", ErrMissingDep)
	case deps.Resolver == nil:
		return nil, fmt.Errorf("%w: resolver", ErrMissingDep)
	case deps.Grabber == nil:
		return nil, fmt.Errorf("%w: grabber", ErrMissingDep)
	case deps.Events == nil:
		return nil, fmt.Errorf("%w: events", ErrMissingDep)
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("streamshot/engine")
	}
	e := &Engine{
		deps:     deps,
		logger:   xglog.WithComponent("engine"),
		requests: make(chan captureRequest),
		done:     make(chan struct{}),
		status:   Status{State: StateIdle},
	}
	metrics.SetEngineState(string(StateIdle))
	return e, nil
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.status
	if s.LastEvent != nil {
		ev := *s.LastEvent
		s.LastEvent = &ev
	}
	return s
}

// Done is closed once Run has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

// CaptureNow asks for an immediate cycle. A request arriving while a cycle runs is
// coalesced: at most one extra cycle follows the current one.
func (e *Engine) CaptureNow(ctx context.Context) (CaptureResult, error) {
	req := captureRequest{reply: make(chan CaptureResult, 1)}
	select {
	case e.requests <- req:
	case <-e.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-e.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.status.State = s
	e.mu.Unlock()
	metrics.SetEngineState(string(s))
}

func (e *Engine) update(fn func(*Status)) {
	e.mu.Lock()
	fn(&e.status)
	e.mu.Unlock()
}

// Run drives the engine until ctx is cancelled. The first tick fires one interval
// after Run starts. On return any in-flight tool has been terminated and the state
// is StateStopped. Run may be called once.
func (e *Engine) Run(ctx context.Context) error {
	first := false
	e.runOnce.Do(func() { first = true })
	if !first {
		return ErrRunning
	}
	defer close(e.done)

	changes, unsubscribe := e.deps.Settings.Subscribe(4)
	defer unsubscribe()

	current := e.deps.Settings.Snapshot()
	applied := current
	lastEnd := e.deps.Clock.Now()

	var (
		timer     clock.Timer
		timerC    <-chan time.Time
		cycleDone chan cycleResult
		cancelRun context.CancelFunc
		pending   bool
	)

	arm := func(from time.Time) {
		if timer != nil {
			timer.Stop()
		}
		next := from.Add(current.Interval())
		delay := next.Sub(e.deps.Clock.Now())
		if delay < 0 {
			delay = 0
		}
		timer = e.deps.Clock.NewTimer(delay)
		timerC = timer.C()
		e.update(func(s *Status) { s.NextTick = next })
	}
	disarm := func() {
		if timer != nil {
			timer.Stop()
		}
		timer, timerC = nil, nil
		e.update(func(s *Status) { s.NextTick = time.Time{} })
	}
	start := func(trigger Trigger) {
		disarm()
		snapshot := e.deps.Settings.Snapshot()
		current = snapshot
		var cycleCtx context.Context
		cycleCtx, cancelRun = context.WithCancel(ctx)
		cycleDone = make(chan cycleResult, 1)
		e.update(func(s *Status) { s.Busy = true })
		go func(done chan<- cycleResult) {
			done <- cycleResult{event: e.cycle(cycleCtx, snapshot, trigger), trigger: trigger}
		}(cycleDone)
	}

	arm(lastEnd)
	e.logger.Info().
		Str("event", "engine.started").
		Int(xglog.FieldInterval, current.IntervalSeconds).
		Msg("capture engine started")

	for {
		select {
		case <-ctx.Done():
			disarm()
			if cycleDone != nil {
				cancelRun()
				res := <-cycleDone
				e.finish(res)
			}
			e.update(func(s *Status) { s.Busy, s.Pending = false, false })
			e.setState(StateStopped)
			e.logger.Info().Str("event", "engine.stopped").Msg("capture engine stopped")
			return nil

		case <-timerC:
			timer, timerC = nil, nil
			start(TriggerTimer)

		case req := <-e.requests:
			if cycleDone != nil {
				pending = true
				e.update(func(s *Status) { s.Pending = true })
				metrics.IncManualCapture(string(CaptureCoalesced))
				req.reply <- CaptureCoalesced
				continue
			}
			metrics.IncManualCapture(string(CaptureStarted))
			req.reply <- CaptureStarted
			start(TriggerManual)

		case ch, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			// Diff against what this loop last saw; ch.Old may predate
			// changes dropped from a full subscription buffer.
			e.applyChange(ctx, applied, ch.New)
			rearm := applied.IntervalSeconds != ch.New.IntervalSeconds
			applied, current = ch.New, ch.New
			if cycleDone == nil && rearm {
				arm(lastEnd)
			}

		case res := <-cycleDone:
			cycleDone = nil
			cancelRun()
			e.finish(res)
			lastEnd = e.deps.Clock.Now()
			if pending {
				pending = false
				e.update(func(s *Status) { s.Pending = false })
				start(TriggerManual)
				continue
			}
			e.update(func(s *Status) { s.Busy = false })
			e.setState(StateIdle)
			arm(lastEnd)
		}
	}
}

// applyChange reacts to settings edits that matter between ticks.
func (e *Engine) applyChange(ctx context.Context, prev, next domain.Settings) {
	if prev.SourceURL != next.SourceURL {
		if prev.SourceURL != "" {
			e.deps.Resolver.Invalidate(prev.SourceURL)
		}
		if next.SourceURL != "" {
			e.deps.Resolver.Prefetch(ctx, next.SourceURL, next.Resolution)
		}
	} else if prev.Resolution != next.Resolution && next.SourceURL != "" {
		e.deps.Resolver.Prefetch(ctx, next.SourceURL, next.Resolution)
	}
	if prev.Paused != next.Paused {
		e.logger.Info().
			Str("event", "engine.pause_changed").
			Bool("paused", next.Paused).
			Msg("pause state changed")
	}
}

// finish records and publishes the event of a completed cycle.
func (e *Engine) finish(res cycleResult) {
	ev := res.event
	e.update(func(s *Status) {
		s.LastEvent = &ev
		switch ev.Outcome {
		case domain.OutcomeCaptured:
			s.Captured++
		case domain.OutcomeFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	})
	metrics.RecordTick(string(ev.Outcome), ev.Duration)
	if ev.Outcome == domain.OutcomeCaptured {
		metrics.SetLastCapture(ev.Timestamp)
	}
	e.deps.Events.Offer(bus.TopicCaptureEvents, ev)
}
