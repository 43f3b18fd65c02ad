// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/fsutil"
)

const DefaultGrabTimeout = 30 * time.Second

// FFmpeg grabs single frames with ffmpeg.
type FFmpeg struct {
	tool    tool
	timeout time.Duration
}

// NewFFmpeg creates a grabber running bin. Zero durations select the defaults.
func NewFFmpeg(bin string, timeout, grace time.Duration) *FFmpeg {
	if bin == "" {
		bin = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultGrabTimeout
	}
	return &FFmpeg{tool: newTool(bin, "ffmpeg", grace), timeout: timeout}
}

// GrabArgs builds the ffmpeg command line for one JPEG frame.
func GrabArgs(mediaURL, outPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-nostdin",
		"-y",
		"-i", mediaURL,
		"-frames:v", "1",
		"-q:v", "2",
		outPath,
	}
}

// Grab writes one frame to outPath. It succeeds only when ffmpeg exits 0 and the file
// exists with content; on any failure a partial file is removed.
func (f *FFmpeg) Grab(ctx context.Context, mediaURL, outPath string) error {
	fail := func(reason string, err error) error {
		_ = os.Remove(outPath)
		return &domain.CaptureError{Path: outPath, Reason: reason, Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	out, err := f.tool.run(runCtx, GrabArgs(mediaURL, outPath)...)
	if err != nil {
		switch {
		case errors.Is(err, ErrToolNotFound):
			return fail("ffmpeg not available", err)
		case out.canceled && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return fail(fmt.Sprintf("timed out after %s", f.timeout), err)
		case out.canceled:
			return fail("canceled", err)
		}
		reason := "ffmpeg failed"
		if tail := out.stderr.Tail(3); tail != "" {
			reason += ": " + tail
		}
		return fail(reason, err)
	}
	if err := fsutil.NonEmptyFile(outPath); err != nil {
		return fail("no frame written", err)
	}
	return nil
}
