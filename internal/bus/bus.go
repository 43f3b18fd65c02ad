// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package bus is the in-process pub/sub carrying capture events from the engine to
// notifiers and the control API.
package bus

import "context"

// Topics.
const (
	TopicCaptureEvents = "capture.events"
	TopicEngineState   = "engine.state"
)

// Subscriber receives messages of one topic until Close.
type Subscriber[T any] interface {
	C() <-chan T
	Close() error
}

// Bus publishes typed messages to topic subscribers.
type Bus[T any] interface {
	// Publish delivers msg to every subscriber, waiting for room until ctx is done.
	Publish(ctx context.Context, topic string, msg T) error
	// Offer delivers msg without blocking; full subscribers miss it.
	Offer(topic string, msg T) int
	Subscribe(topic string, buffer int) Subscriber[T]
}
