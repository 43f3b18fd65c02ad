// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"errors"

	"github.com/ManuGH/streamshot/internal/bus"
	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/metrics"
	"github.com/rs/zerolog"
)

// Dispatcher delivers capture events from the bus to every notifier in order. A slow
// or failing notifier never blocks the engine: the bus drops events for a full
// subscriber instead.
type Dispatcher struct {
	sub       bus.Subscriber[domain.CaptureEvent]
	notifiers []Notifier
	upstream  <-chan struct{}
	logger    zerolog.Logger
}

// NewDispatcher subscribes to the capture event topic right away so no event
// published after construction is missed.
func NewDispatcher(b bus.Bus[domain.CaptureEvent], notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		sub:       b.Subscribe(bus.TopicCaptureEvents, bus.DefaultBuffer),
		notifiers: notifiers,
		logger:    xglog.WithComponent("notify"),
	}
}

// After makes Run keep delivering past cancellation until done is closed, so events
// the publisher emits while stopping are not lost. done must close eventually.
func (d *Dispatcher) After(done <-chan struct{}) *Dispatcher {
	d.upstream = done
	return d
}

// Run delivers events until ctx is done, then drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer func() { _ = d.sub.Close() }()
	for {
		select {
		case <-ctx.Done():
			return d.drain(context.WithoutCancel(ctx))
		case ev, ok := <-d.sub.C():
			if !ok {
				return nil
			}
			d.dispatch(ctx, ev)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) error {
	for d.upstream != nil {
		select {
		case <-d.upstream:
			d.upstream = nil
		case ev, ok := <-d.sub.C():
			if !ok {
				return nil
			}
			d.dispatch(ctx, ev)
		}
	}
	for {
		select {
		case ev, ok := <-d.sub.C():
			if !ok {
				return nil
			}
			d.dispatch(ctx, ev)
		default:
			return nil
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev domain.CaptureEvent) {
	ctx = xglog.ContextWithTickID(ctx, ev.ID)
	for _, n := range d.notifiers {
		if f, ok := n.(Filter); ok && !f.Wants(ev) {
			continue
		}
		err := n.Notify(ctx, ev)
		switch {
		case err == nil:
			metrics.IncNotification(n.Name(), "sent")
		case errors.Is(err, ErrThrottled):
			metrics.IncNotification(n.Name(), "suppressed")
		default:
			metrics.IncNotification(n.Name(), "error")
			logger := xglog.WithContext(ctx, d.logger)
			logger.Warn().Err(err).
				Str("event", "notify.failed").
				Str("notifier", n.Name()).
				Msg("notification failed")
		}
	}
}
