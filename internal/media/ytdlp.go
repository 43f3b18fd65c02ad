// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/metrics"
)

const DefaultResolveTimeout = 30 * time.Second

// VideoInfo is the subset of the yt-dlp JSON dump used for resolution.
type VideoInfo struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	LiveStatus string   `json:"live_status"`
	IsLive     bool     `json:"is_live"`
	URL        string   `json:"url"`
	FormatID   string   `json:"format_id"`
	Height     int      `json:"height"`
	Formats    []Format `json:"formats"`
}

// Format is one entry of VideoInfo.Formats.
type Format struct {
	FormatID string `json:"format_id"`
	URL      string `json:"url"`
	Ext      string `json:"ext"`
	Height   int    `json:"height"`
	VCodec   string `json:"vcodec"`
	Protocol string `json:"protocol"`
}

func (f Format) hasVideo() bool {
	return f.URL != "" && f.Height > 0 && f.VCodec != "none"
}

// SelectFormat picks the format to grab from. ResolutionBest takes the tallest video
// format; otherwise the tallest format not exceeding the target height wins, falling
// back to the shortest one above it. Among equal heights the later entry wins, since
// yt-dlp lists formats worst to best.
func SelectFormat(formats []Format, res domain.Resolution) (Format, bool) {
	target := res.Height()
	var below, above Format
	var haveBelow, haveAbove bool
	for _, f := range formats {
		if !f.hasVideo() {
			continue
		}
		if target == 0 || f.Height <= target {
			if !haveBelow || f.Height >= below.Height {
				below, haveBelow = f, true
			}
			continue
		}
		if !haveAbove || f.Height <= above.Height {
			above, haveAbove = f, true
		}
	}
	if haveBelow {
		return below, true
	}
	return above, haveAbove
}

// YTDLP resolves watch URLs with yt-dlp.
type YTDLP struct {
	tool    tool
	timeout time.Duration
	now     func() time.Time
}

// NewYTDLP creates a resolver running bin. Zero durations select the defaults.
func NewYTDLP(bin string, timeout, grace time.Duration) *YTDLP {
	if bin == "" {
		bin = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &YTDLP{tool: newTool(bin, "ytdlp", grace), timeout: timeout, now: time.Now}
}

// Resolve runs `yt-dlp -J` for sourceURL and selects a format for res.
func (y *YTDLP) Resolve(ctx context.Context, sourceURL string, res domain.Resolution) (domain.ResolvedStream, error) {
	fail := func(reason domain.ResolutionReason, detail string, err error) (domain.ResolvedStream, error) {
		metrics.IncResolverError(string(reason))
		return domain.ResolvedStream{}, &domain.ResolutionError{
			URL: sourceURL, Resolution: res, Reason: reason, Detail: detail, Err: err,
		}
	}

	if err := domain.ValidateSourceURL(sourceURL); err != nil {
		return fail(domain.ReasonInvalidURL, "", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	out, err := y.tool.run(runCtx, "-J", "--no-playlist", "--no-warnings", sourceURL)
	metrics.ObserveResolverTool(out.duration)
	if err != nil {
		switch {
		case errors.Is(err, ErrToolNotFound):
			return fail(domain.ReasonToolFailure, "", err)
		case out.canceled && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			return fail(domain.ReasonTimeout, fmt.Sprintf("no answer within %s", y.timeout), err)
		case out.canceled:
			return fail(domain.ReasonToolFailure, "canceled", err)
		}
		return fail(ClassifyStderr(out.stderr.Lines()), out.stderr.Tail(3), err)
	}

	var info VideoInfo
	if err := json.Unmarshal(out.stdout, &info); err != nil {
		return fail(domain.ReasonToolFailure, "unparseable yt-dlp output", err)
	}
	switch info.LiveStatus {
	case "is_upcoming":
		return fail(domain.ReasonOffline, "stream has not started yet", nil)
	case "post_live", "was_live":
		if len(info.Formats) == 0 {
			return fail(domain.ReasonOffline, "stream has ended", nil)
		}
	}

	f, ok := SelectFormat(info.Formats, res)
	if !ok {
		if info.URL == "" {
			return fail(domain.ReasonNoFormats, "no video formats", nil)
		}
		f = Format{FormatID: info.FormatID, URL: info.URL, Height: info.Height}
	}

	title := strings.TrimSpace(info.Title)
	if title == "" {
		title = info.ID
	}
	return domain.ResolvedStream{
		SourceURL:      sourceURL,
		Resolution:     res,
		DirectMediaURL: f.URL,
		ResolvedAt:     y.now(),
		Title:          title,
		FormatID:       f.FormatID,
		Height:         f.Height,
	}, nil
}

var stderrClasses = []struct {
	reason  domain.ResolutionReason
	needles []string
}{
	{domain.ReasonOffline, []string{
		"this live event will begin", "premieres in", "is offline", "not currently live",
		"live stream recording is not available", "this live stream has ended",
	}},
	{domain.ReasonUnavailable, []string{
		"private video", "video unavailable", "members-only", "sign in to confirm",
		"has been removed", "this video is not available", "http error 403", "http error 404",
	}},
	{domain.ReasonInvalidURL, []string{
		"is not a valid url", "unsupported url", "incomplete youtube id",
	}},
}

// ClassifyStderr maps yt-dlp diagnostics to a resolution reason.
func ClassifyStderr(lines []string) domain.ResolutionReason {
	text := strings.ToLower(strings.Join(lines, "\n"))
	for _, c := range stderrClasses {
		for _, n := range c.needles {
			if strings.Contains(text, n) {
				return c.reason
			}
		}
	}
	return domain.ReasonToolFailure
}
