// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"sync"

	"github.com/ManuGH/streamshot/internal/domain"
)

const DefaultHistorySize = 100

// History keeps the most recent events in a fixed ring.
type History struct {
	mu    sync.RWMutex
	buf   []domain.CaptureEvent
	next  int
	count int
}

var _ Notifier = (*History)(nil)

func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{buf: make([]domain.CaptureEvent, size)}
}

func (h *History) Name() string { return "history" }

func (h *History) Notify(_ context.Context, ev domain.CaptureEvent) error {
	h.mu.Lock()
	h.buf[h.next] = ev
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
	h.mu.Unlock()
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 returns all.
func (h *History) Recent(limit int) []domain.CaptureEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := h.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.CaptureEvent, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// Len is the number of stored events.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
