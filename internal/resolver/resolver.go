// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package resolver caches resolved media URLs per (watch URL, resolution) for a
// freshness window and coalesces concurrent resolutions of the same pair.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/ManuGH/streamshot/internal/cache"
	"github.com/ManuGH/streamshot/internal/clock"
	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/media"
	"github.com/ManuGH/streamshot/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved media URL is reused.
const DefaultTTL = 5 * time.Minute

var allResolutions = []domain.Resolution{
	domain.Resolution480p, domain.Resolution720p, domain.Resolution1080p, domain.ResolutionBest,
}

// Key is the cache key of a (url, resolution) pair.
func Key(sourceURL string, res domain.Resolution) string {
	return string(res) + "|" + sourceURL
}

// Resolver is a caching front for a media.StreamResolver.
type Resolver struct {
	backend media.StreamResolver
	store   cache.Cache[domain.ResolvedStream]
	ttl     time.Duration
	clock   clock.Clock
	logger  zerolog.Logger

	group    singleflight.Group
	prefetch sync.WaitGroup
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL sets the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock replaces the time source used for freshness.
func WithClock(c clock.Clock) Option {
	return func(r *Resolver) { r.clock = c }
}

// New creates a resolver storing entries in store.
func New(backend media.StreamResolver, store cache.Cache[domain.ResolvedStream], opts ...Option) *Resolver {
	r := &Resolver{
		backend: backend,
		store:   store,
		ttl:     DefaultTTL,
		clock:   clock.Real{},
		logger:  xglog.WithComponent("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the freshness window.
func (r *Resolver) TTL() time.Duration { return r.ttl }

// Resolve returns a fresh cached entry or asks the backend. Concurrent calls for the
// same pair share one backend call, which runs under the first caller's ctx.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string, res domain.Resolution) (domain.ResolvedStream, error) {
	key := Key(sourceURL, res)
	if rs, ok := r.fresh(key); ok {
		metrics.IncResolverRequest("hit")
		return rs, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		// Another flight may have stored the entry while we waited for the key.
		if rs, ok := r.fresh(key); ok {
			return rs, nil
		}
		rs, err := r.backend.Resolve(ctx, sourceURL, res)
		if err != nil {
			return domain.ResolvedStream{}, err
		}
		r.store.Set(key, rs, r.ttl)
		r.logger.Info().
			Str("event", "resolver.resolved").
			Str(xglog.FieldSourceURL, sourceURL).
			Str(xglog.FieldResolution, string(res)).
			Str(xglog.FieldFormatID, rs.FormatID).
			Int(xglog.FieldHeight, rs.Height).
			Str("title", rs.Title).
			Msg("stream resolved")
		return rs, nil
	})
	switch {
	case err != nil:
		metrics.IncResolverRequest("error")
		return domain.ResolvedStream{}, err
	case shared:
		metrics.IncResolverRequest("shared")
	default:
		metrics.IncResolverRequest("miss")
	}
	return v.(domain.ResolvedStream), nil
}

func (r *Resolver) fresh(key string) (domain.ResolvedStream, bool) {
	rs, ok := r.store.Get(key)
	if !ok || !rs.FreshAt(r.clock.Now(), r.ttl) {
		return domain.ResolvedStream{}, false
	}
	return rs, true
}

// Peek returns the cached entry for a pair and whether it is still fresh.
func (r *Resolver) Peek(sourceURL string, res domain.Resolution) (domain.ResolvedStream, bool) {
	rs, ok := r.store.Get(Key(sourceURL, res))
	if !ok {
		return domain.ResolvedStream{}, false
	}
	return rs, rs.FreshAt(r.clock.Now(), r.ttl)
}

// Invalidate drops every cached resolution of sourceURL.
func (r *Resolver) Invalidate(sourceURL string) {
	for _, res := range allResolutions {
		r.store.Delete(Key(sourceURL, res))
	}
	r.logger.Debug().
		Str("event", "resolver.invalidated").
		Str(xglog.FieldSourceURL, sourceURL).
		Msg("cached resolutions dropped")
}

// Prefetch resolves in the background so the next tick finds a warm cache. Errors are
// logged only.
func (r *Resolver) Prefetch(ctx context.Context, sourceURL string, res domain.Resolution) {
	if sourceURL == "" {
		return
	}
	r.prefetch.Add(1)
	go func() {
		defer r.prefetch.Done()
		if _, err := r.Resolve(ctx, sourceURL, res); err != nil {
			r.logger.Warn().
				Err(err).
				Str("event", "resolver.prefetch_failed").
				Str(xglog.FieldSourceURL, sourceURL).
				Msg("prefetch failed")
		}
	}()
}

// Wait blocks until all prefetches have finished.
func (r *Resolver) Wait() {
	r.prefetch.Wait()
}
