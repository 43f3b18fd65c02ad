// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media drives the external tools: yt-dlp turns a watch URL into a direct
// media URL, ffmpeg grabs a single frame from it.
package media

import (
	"context"

	"github.com/ManuGH/streamshot/internal/domain"
)

// StreamResolver turns a watch URL into a playable media URL. Failures are
// *domain.ResolutionError.
type StreamResolver interface {
	Resolve(ctx context.Context, sourceURL string, res domain.Resolution) (domain.ResolvedStream, error)
}

// Grabber writes one frame of mediaURL to outPath. Failures are *domain.CaptureError
// and leave no file behind.
type Grabber interface {
	Grab(ctx context.Context, mediaURL, outPath string) error
}
