// SPDX-License-Identifier: MIT

// Package cache provides typed TTL caches backed by memory or Redis.
package cache

import (
	"sync"
	"time"
)

// Cache is a thread-safe key/value store with per-entry expiry.
type Cache[V any] interface {
	// Get returns the value and true if the key exists and has not expired.
	Get(key string) (V, bool)
	// Set stores value under key for ttl.
	Set(key string, value V, ttl time.Duration)
	// Delete removes key.
	Delete(key string)
	// Clear removes all entries owned by this cache.
	Clear()
	// Stats returns cache statistics.
	Stats() Stats
}

// Stats holds cache counters.
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Sets        int64 `json:"sets"`
	Evictions   int64 `json:"evictions"`
	CurrentSize int   `json:"currentSize"`
}

type entry[V any] struct {
	value      V
	expiration time.Time
}

// Memory is an in-memory Cache with an optional janitor sweeping expired entries.
type Memory[V any] struct {
	mu      sync.Mutex
	entries map[string]entry[V]
	stats   Stats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

var _ Cache[struct{}] = (*Memory[struct{}])(nil)

// MemoryOption configures a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	now func() time.Time
}

// WithNow replaces the clock used for expiry.
func WithNow(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// NewMemory creates a memory cache. A positive cleanupInterval starts a janitor
// goroutine that Stop ends.
func NewMemory[V any](cleanupInterval time.Duration, opts ...MemoryOption) *Memory[V] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Memory[V]{
		entries: make(map[string]entry[V]),
		now:     o.now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	} else {
		close(c.done)
	}
	return c
}

func (c *Memory[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiration) {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.stats.Hits++
	return e.value, true
}

func (c *Memory[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiration: c.now().Add(ttl)}
	c.stats.Sets++
}

func (c *Memory[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Memory[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

func (c *Memory[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.CurrentSize = len(c.entries)
	return s
}

// DeleteExpired removes expired entries and returns how many were dropped.
func (c *Memory[V]) DeleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	count := 0
	for key, e := range c.entries {
		if now.After(e.expiration) {
			delete(c.entries, key)
			count++
		}
	}
	c.stats.Evictions += int64(count)
	return count
}

// Stop ends the janitor and waits for it. Safe to call more than once.
func (c *Memory[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Memory[V]) janitor(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}
