// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchURL = "https://www.youtube.com/watch?v=live123"

// fakeTool writes an executable shell script and returns its path.
func fakeTool(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestYTDLPResolve(t *testing.T) {
	bin := fakeTool(t, "yt-dlp", `cat <<'JSON'
{"id":"live123","title":"Harbour Cam","live_status":"is_live","formats":[
 {"format_id":"91","url":"https://m/144","height":144,"vcodec":"avc1"},
 {"format_id":"95","url":"https://m/720","height":720,"vcodec":"avc1"},
 {"format_id":"96","url":"https://m/1080","height":1080,"vcodec":"avc1"}]}
JSON`)
	y := NewYTDLP(bin, 5*time.Second, 100*time.Millisecond)
	fixed := time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)
	y.now = func() time.Time { return fixed }

	rs, err := y.Resolve(context.Background(), watchURL, domain.Resolution720p)
	require.NoError(t, err)
	assert.Equal(t, "https://m/720", rs.DirectMediaURL)
	assert.Equal(t, "Harbour Cam", rs.Title)
	assert.Equal(t, "95", rs.FormatID)
	assert.Equal(t, 720, rs.Height)
	assert.Equal(t, fixed, rs.ResolvedAt)
	assert.Equal(t, domain.Resolution720p, rs.Resolution)
}

func TestYTDLPResolveOffline(t *testing.T) {
	bin := fakeTool(t, "yt-dlp", `echo "ERROR: [youtube] live123: This live event will begin in a few moments." >&2; exit 1`)
	_, err := NewYTDLP(bin, 5*time.Second, 0).Resolve(context.Background(), watchURL, domain.Resolution1080p)

	var re *domain.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.ReasonOffline, re.Reason)
	assert.ErrorIs(t, err, domain.ErrResolution)
}

func TestYTDLPResolveUpcoming(t *testing.T) {
	bin := fakeTool(t, "yt-dlp", `echo '{"id":"x","live_status":"is_upcoming","formats":[]}'`)
	_, err := NewYTDLP(bin, 5*time.Second, 0).Resolve(context.Background(), watchURL, domain.Resolution1080p)

	var re *domain.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.ReasonOffline, re.Reason)
}

func TestYTDLPResolveTimeout(t *testing.T) {
	bin := fakeTool(t, "yt-dlp", `exec sleep 30`)
	start := time.Now()
	_, err := NewYTDLP(bin, 200*time.Millisecond, 100*time.Millisecond).Resolve(context.Background(), watchURL, domain.Resolution1080p)

	var re *domain.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.ReasonTimeout, re.Reason)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestYTDLPRejectsForeignURL(t *testing.T) {
	bin := fakeTool(t, "yt-dlp", `echo should-not-run >&2; exit 1`)
	_, err := NewYTDLP(bin, time.Second, 0).Resolve(context.Background(), "https://vimeo.com/1", domain.Resolution1080p)

	var re *domain.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.ReasonInvalidURL, re.Reason)
}

func TestYTDLPMissingBinary(t *testing.T) {
	_, err := NewYTDLP(filepath.Join(t.TempDir(), "nope"), time.Second, 0).Resolve(context.Background(), watchURL, domain.Resolution1080p)
	assert.ErrorIs(t, err, ErrToolNotFound)
	assert.ErrorIs(t, err, domain.ErrResolution)
}

func TestFFmpegGrab(t *testing.T) {
	// The output path is the last argument.
	bin := fakeTool(t, "ffmpeg", `for last; do :; done; printf 'JPEGDATA' > "$last"`)
	out := filepath.Join(t.TempDir(), "frame.jpg")

	require.NoError(t, NewFFmpeg(bin, 5*time.Second, 0).Grab(context.Background(), "https://m/720", out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(data))
}

func TestFFmpegGrabEmptyOutput(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `for last; do :; done; : > "$last"`)
	out := filepath.Join(t.TempDir(), "frame.jpg")

	err := NewFFmpeg(bin, 5*time.Second, 0).Grab(context.Background(), "https://m/720", out)
	assert.ErrorIs(t, err, domain.ErrCapture)
	assert.NoFileExists(t, out)
}

func TestFFmpegGrabNonZeroExit(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `for last; do :; done; printf 'partial' > "$last"; echo "Server returned 403 Forbidden" >&2; exit 1`)
	out := filepath.Join(t.TempDir(), "frame.jpg")

	err := NewFFmpeg(bin, 5*time.Second, 0).Grab(context.Background(), "https://m/720", out)
	var ce *domain.CaptureError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.Reason, "403 Forbidden")
	assert.NoFileExists(t, out, "partial output must be removed")
}

func TestFFmpegGrabCanceled(t *testing.T) {
	bin := fakeTool(t, "ffmpeg", `for last; do :; done; printf 'partial' > "$last"; exec sleep 30`)
	out := filepath.Join(t.TempDir(), "frame.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	err := NewFFmpeg(bin, 10*time.Second, 100*time.Millisecond).Grab(ctx, "https://m/720", out)
	var ce *domain.CaptureError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "canceled", ce.Reason)
	assert.NoFileExists(t, out)
}

func TestToolRunLogsExit(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	bin := fakeTool(t, "noop", `exit 0`)
	_, err := newTool(bin, "test", 0).run(context.Background())
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "tool.exit", entry["event"])
	assert.Equal(t, "debug", entry["level"])
	assert.Contains(t, entry, xglog.FieldPID)
	assert.Equal(t, false, entry["stopped"])
}
