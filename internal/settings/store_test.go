// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, opts ...Option) (*Store, *File) {
	t.Helper()
	f := NewFile(filepath.Join(t.TempDir(), "settings.yaml"))
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	s, err := Open(f, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, f
}

func TestOpen_FirstRunWritesDefaults(t *testing.T) {
	s, f := openTestStore(t)

	if diff := cmp.Diff(domain.DefaultSettings(), s.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	_, err := os.Stat(f.Path())
	require.NoError(t, err, "defaults should be persisted on first run")
}

func TestOpen_RepairsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\ninterval_seconds: 600\nresolution: 8k\n"), 0o600))

	s, err := Open(NewFile(path), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	defer s.Close()

	snap := s.Snapshot()
	assert.Equal(t, domain.MaxIntervalSeconds, snap.IntervalSeconds)
	assert.Equal(t, domain.Resolution1080p, snap.Resolution)

	reloaded, found, err := NewFile(path).Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.MaxIntervalSeconds, reloaded.IntervalSeconds, "repair should be written back")
}

func TestOpen_UnknownFieldIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intervall: 10\n"), 0o600))

	_, err := Open(NewFile(path), WithLogger(zerolog.Nop()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSettingsField)
}

func TestUpdate_PersistsAndNotifies(t *testing.T) {
	s, f := openTestStore(t)
	ch, unsubscribe := s.Subscribe(4)
	defer unsubscribe()

	url := "https://www.youtube.com/watch?v=live"
	interval := 10
	got, err := s.Apply(Patch{SourceURL: &url, IntervalSeconds: &interval})
	require.NoError(t, err)
	assert.Equal(t, url, got.SourceURL)

	select {
	case c := <-ch:
		assert.Equal(t, "update", c.Source)
		assert.Equal(t, domain.DefaultIntervalSeconds, c.Old.IntervalSeconds)
		assert.Equal(t, 10, c.New.IntervalSeconds)
	case <-time.After(time.Second):
		t.Fatal("expected change notification")
	}

	onDisk, _, err := f.Load()
	require.NoError(t, err)
	assert.True(t, onDisk.Equal(s.Snapshot()))
}

func TestUpdate_RejectsInvalidAndKeepsState(t *testing.T) {
	s, _ := openTestStore(t)
	before := s.Snapshot()

	tooFast := 1
	_, err := s.Apply(Patch{IntervalSeconds: &tooFast})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	enable := true
	_, err = s.Apply(Patch{ScheduleEnabled: &enable})
	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "location", cfgErr.Field)

	assert.True(t, before.Equal(s.Snapshot()))
}

func TestUpdate_NoOpDoesNotNotify(t *testing.T) {
	s, _ := openTestStore(t)
	ch, unsubscribe := s.Subscribe(1)
	defer unsubscribe()

	_, err := s.Update(func(*domain.Settings) error { return nil })
	require.NoError(t, err)

	select {
	case c := <-ch:
		t.Fatalf("unexpected notification: %+v", c)
	default:
	}
}

func TestSubscribe_SlowReaderSeesLatest(t *testing.T) {
	s, _ := openTestStore(t)
	ch, unsubscribe := s.Subscribe(1)
	defer unsubscribe()

	for _, v := range []int{10, 20, 30} {
		v := v
		_, err := s.Apply(Patch{IntervalSeconds: &v})
		require.NoError(t, err)
	}

	c := <-ch
	assert.Equal(t, 30, c.New.IntervalSeconds)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Apply(Patch{Location: &domain.Location{Latitude: 1, Longitude: 2}})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Location.Latitude = 50
	assert.Equal(t, 1.0, s.Snapshot().Location.Latitude)
}

func TestPatchToggleAndClear(t *testing.T) {
	s, _ := openTestStore(t)
	_, err := s.Apply(Patch{Location: &domain.Location{Latitude: 1, Longitude: 2}, ToggleSchedule: true})
	require.NoError(t, err)
	assert.True(t, s.Snapshot().ScheduleEnabled)

	_, err = s.Apply(Patch{ClearLocation: true})
	require.NoError(t, err)
	snap := s.Snapshot()
	assert.Nil(t, snap.Location)
	assert.False(t, snap.ScheduleEnabled)

	_, err = s.SetPaused(true)
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Paused)

	assert.True(t, Patch{}.Empty())
}

func TestReload_PicksUpExternalEdits(t *testing.T) {
	s, f := openTestStore(t, WithDebounce(10*time.Millisecond))
	ch, unsubscribe := s.Subscribe(4)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.StartWatcher(ctx))

	edited := s.Snapshot()
	edited.IntervalSeconds = 15
	require.NoError(t, f.Save(edited))

	select {
	case c := <-ch:
		assert.Equal(t, "file", c.Source)
		assert.Equal(t, 15, c.New.IntervalSeconds)
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload notification")
	}
}

func TestReload_RejectsInvalidFile(t *testing.T) {
	s, f := openTestStore(t)
	require.NoError(t, os.WriteFile(f.Path(), []byte("interval_seconds: 2\n"), 0o600))

	err := s.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.DefaultIntervalSeconds, s.Snapshot().IntervalSeconds)
}

func TestUpdateAfterClose(t *testing.T) {
	s, _ := openTestStore(t)
	require.NoError(t, s.Close())
	_, err := s.SetPaused(true)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
