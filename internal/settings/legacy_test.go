// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLegacy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportLegacy(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		interval int
		mode     domain.CaptureMode
		res      domain.Resolution
		url      string
		location bool
	}{
		{
			name:     "interval label and preferred resolution",
			body:     `{"youtube_urls":["https://www.youtube.com/watch?v=a"],"interval":"15 seconds","preferred_resolution":"720p"}`,
			interval: 15, mode: domain.ModeAlways, res: domain.Resolution720p,
			url: "https://www.youtube.com/watch?v=a",
		},
		{
			name:     "interval clamped and sunsets only",
			body:     `{"interval":"5 minutes","only_sunsets":true,"schedule_enabled":true,"location":{"latitude":1.3,"longitude":103.8,"name":"SG"}}`,
			interval: domain.MaxIntervalSeconds, mode: domain.ModeSunsetOnly, res: domain.Resolution1080p,
			location: true,
		},
		{
			name:     "zero location means none",
			body:     `{"interval":30,"schedule_enabled":true,"location":{"latitude":0,"longitude":0}}`,
			interval: 30, mode: domain.ModeBoth, res: domain.Resolution1080p,
		},
		{
			name:     "non youtube url dropped",
			body:     `{"youtube_urls":["https://example.com/x"],"interval":"10"}`,
			interval: 10, mode: domain.ModeAlways, res: domain.Resolution1080p,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, err := ImportLegacy(writeLegacy(t, tt.body))
			require.NoError(t, err)
			require.NoError(t, s.Validate())
			assert.Equal(t, tt.interval, s.IntervalSeconds)
			assert.Equal(t, tt.mode, s.CaptureMode)
			assert.Equal(t, tt.res, s.Resolution)
			assert.Equal(t, tt.url, s.SourceURL)
			assert.Equal(t, tt.location, s.Location != nil)
		})
	}
}

func TestOpen_ImportsLegacyOnFirstRun(t *testing.T) {
	legacy := writeLegacy(t, `{"youtube_urls":["https://youtu.be/x"],"interval":"45 seconds","output_path":"shots"}`)
	f := NewFile(filepath.Join(t.TempDir(), "settings.yaml"))

	s, err := Open(f, WithLogger(zerolog.Nop()), WithLegacyImport(legacy))
	require.NoError(t, err)
	defer s.Close()

	snap := s.Snapshot()
	assert.Equal(t, "https://youtu.be/x", snap.SourceURL)
	assert.Equal(t, 45, snap.IntervalSeconds)
	assert.Equal(t, "shots", snap.OutputDirectory)

	onDisk, found, err := f.Load()
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, onDisk.Equal(snap))
}

func TestImportLegacy_BadJSON(t *testing.T) {
	_, _, err := ImportLegacy(writeLegacy(t, `{`))
	require.Error(t, err)
}
