// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package settings owns the user settings record. All reads and writes go through a
// Store, which persists every mutation and broadcasts immutable snapshots to
// subscribers.
package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Persister loads and saves the settings record.
type Persister interface {
	Load() (domain.Settings, bool, error)
	Save(domain.Settings) error
	Path() string
}

// Change is broadcast after every applied mutation.
type Change struct {
	Old    domain.Settings
	New    domain.Settings
	Source string // "update" or "file"
}

// Option configures Open.
type Option func(*Store)

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithLegacyImport imports the desktop app's config.json on first run.
func WithLegacyImport(path string) Option {
	return func(s *Store) { s.legacyPath = path }
}

// WithDebounce sets the file watcher debounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// Store is the single owner of the settings record.
type Store struct {
	mu      sync.RWMutex
	current domain.Settings
	closed  bool

	file       Persister
	legacyPath string
	logger     zerolog.Logger
	debounce   time.Duration

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int

	watcher *fsnotify.Watcher
}

// Open loads settings from p, falling back to a legacy import and then to defaults.
// Values that violate the invariants are repaired and written back.
func Open(p Persister, opts ...Option) (*Store, error) {
	s := &Store{
		file:     p,
		logger:   xglog.WithComponent("settings"),
		debounce: 500 * time.Millisecond,
		subs:     make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded, found, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	dirty := !found
	if !found && s.legacyPath != "" {
		if _, statErr := os.Stat(s.legacyPath); statErr == nil {
			imported, notes, err := ImportLegacy(s.legacyPath)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("event", "settings.legacy_import_failed").
					Str("path", s.legacyPath).
					Msg("ignoring unreadable legacy config")
			} else {
				loaded = imported
				for _, n := range notes {
					s.logger.Warn().Str("event", "settings.legacy_repaired").Msg(n)
				}
				s.logger.Info().
					Str("event", "settings.legacy_imported").
					Str("path", s.legacyPath).
					Msg("imported legacy desktop settings")
			}
		}
	}

	normalized, notes := loaded.Normalize()
	for _, n := range notes {
		s.logger.Warn().Str("event", "settings.repaired").Str("path", p.Path()).Msg(n)
	}
	if len(notes) > 0 {
		dirty = true
	}
	s.current = normalized

	if dirty {
		if err := p.Save(normalized); err != nil {
			return nil, fmt.Errorf("persist settings: %w", err)
		}
	}

	s.logger.Info().
		Str("event", "settings.loaded").
		Str("path", p.Path()).
		Bool("existing", found).
		Msg("settings ready")
	return s, nil
}

// Snapshot returns a consistent copy of the current settings.
func (s *Store) Snapshot() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update applies fn to a copy of the settings, validates and persists the result and
// notifies subscribers. A failing fn or validation leaves the settings unchanged.
func (s *Store) Update(fn func(*domain.Settings) error) (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.Settings{}, ErrStoreClosed
	}

	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return s.current.Clone(), err
	}
	if err := next.Validate(); err != nil {
		return s.current.Clone(), err
	}
	if next.Equal(s.current) {
		return next, nil
	}
	if err := s.file.Save(next); err != nil {
		return s.current.Clone(), fmt.Errorf("persist settings: %w", err)
	}

	old := s.current
	s.current = next
	s.logChanges(old, next)
	s.notify(Change{Old: old.Clone(), New: next.Clone(), Source: "update"})
	return next.Clone(), nil
}

// Reload re-reads the settings file. Invalid content is rejected and the current
// settings are kept.
func (s *Store) Reload(_ context.Context) error {
	loaded, found, err := s.file.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !found {
		return nil
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || loaded.Equal(s.current) {
		return nil
	}
	old := s.current
	s.current = loaded
	s.logChanges(old, loaded)
	s.notify(Change{Old: old.Clone(), New: loaded.Clone(), Source: "file"})
	s.logger.Info().Str("event", "settings.reloaded").Msg("settings reloaded from file")
	return nil
}

// Subscribe registers for change notifications. Delivery is non-blocking: when the
// channel is full the oldest pending change is replaced, so a slow reader always sees
// the latest settings. The returned func unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
			}
		})
	}
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
			s.logger.Warn().
				Str("event", "settings.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// StartWatcher reloads the settings when the file is edited externally. The parent
// directory is watched because saves replace the file by rename.
func (s *Store) StartWatcher(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(s.file.Path())
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings dir: %w", err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.mu.Unlock()

	s.logger.Info().
		Str("event", "settings.watcher_started").
		Str("path", s.file.Path()).
		Msg("watching settings file for changes")

	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Store) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()
	target := filepath.Clean(s.file.Path())

	for {
		select {
		case <-ctx.Done():
			_ = watcher.Close()
			s.logger.Info().Str("event", "settings.watcher_stopped").Msg("settings watcher stopped")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(s.debounce, func() {
				if err := s.Reload(ctx); err != nil {
					s.logger.Error().
						Err(err).
						Str("event", "settings.auto_reload_failed").
						Msg("automatic settings reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error().Err(err).Str("event", "settings.watcher_error").Msg("settings watcher error")
		}
	}
}

// Close stops the watcher and closes all subscriber channels.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	w := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	var errs []error
	if w != nil {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()
	return errors.Join(errs...)
}

func (s *Store) logChanges(old, next domain.Settings) {
	if old.SourceURL != next.SourceURL {
		s.logger.Info().Str("old", old.SourceURL).Str("new", next.SourceURL).Msg("settings changed: source url")
	}
	if old.IntervalSeconds != next.IntervalSeconds {
		s.logger.Info().Int("old", old.IntervalSeconds).Int("new", next.IntervalSeconds).Msg("settings changed: interval")
	}
	if old.Resolution != next.Resolution {
		s.logger.Info().Str("old", string(old.Resolution)).Str("new", string(next.Resolution)).Msg("settings changed: resolution")
	}
	if old.CaptureMode != next.CaptureMode || old.ScheduleEnabled != next.ScheduleEnabled {
		s.logger.Info().
			Str("mode", string(next.CaptureMode)).
			Bool("schedule_enabled", next.ScheduleEnabled).
			Msg("settings changed: schedule")
	}
	if old.Paused != next.Paused {
		s.logger.Info().Bool("paused", next.Paused).Msg("settings changed: paused")
	}
	if old.OutputDirectory != next.OutputDirectory {
		s.logger.Info().Str("old", old.OutputDirectory).Str("new", next.OutputDirectory).Msg("settings changed: output directory")
	}
}
