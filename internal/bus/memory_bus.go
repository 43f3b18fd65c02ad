// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/metrics"
)

const (
	DefaultBuffer = 64
	dropLogEvery  = 100
)

// MemoryBus is a non-durable in-process Bus.
type MemoryBus[T any] struct {
	mu   sync.RWMutex
	subs map[string][]chan T

	dropped atomic.Uint64
}

var _ Bus[struct{}] = (*MemoryBus[struct{}])(nil)

func NewMemoryBus[T any]() *MemoryBus[T] {
	return &MemoryBus[T]{subs: make(map[string][]chan T)}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

func (b *MemoryBus[T]) Publish(ctx context.Context, topic string, msg T) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	// The read lock is held while sending so Close cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
		case <-ctx.Done():
			b.drop(topic, publishDropReason(ctx.Err()))
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

// Offer returns the number of subscribers that received msg.
func (b *MemoryBus[T]) Offer(topic string, msg T) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	delivered := 0
	for _, ch := range b.subs[topic] {
		select {
		case ch <- msg:
			delivered++
		default:
			b.drop(topic, "full")
		}
	}
	return delivered
}

func (b *MemoryBus[T]) drop(topic, reason string) {
	metrics.IncBusDropReason(topic, reason)
	if count := b.dropped.Add(1); count%dropLogEvery == 1 {
		xglog.L().Warn().
			Str("event", "bus.dropped").
			Str("topic", topic).
			Str("reason", reason).
			Uint64("dropped", count).
			Msg("memory bus dropped a message")
	}
}

func (b *MemoryBus[T]) Subscribe(topic string, buffer int) Subscriber[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()

	return &memSub[T]{b: b, topic: topic, ch: ch}
}

type memSub[T any] struct {
	b     *MemoryBus[T]
	topic string
	ch    chan T
	once  sync.Once
}

func (s *memSub[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes and closes the channel. Safe to call more than once.
func (s *memSub[T]) Close() error {
	s.once.Do(func() {
		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s.ch {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		close(s.ch)
	})
	return nil
}
