// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/media"
	"github.com/ManuGH/streamshot/internal/procgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultHookTimeout = 10 * time.Second
	hookKillGrace      = time.Second
)

var (
	ErrEmptyCommand = errors.New("empty notification command")
	// ErrThrottled means the event was dropped by the rate limit.
	ErrThrottled = errors.New("notification throttled")
)

// HookNotifier runs an external command such as notify-send for notable events. The
// title and message are appended as the last two arguments and the event is also
// exported as STREAMSHOT_* environment variables.
type HookNotifier struct {
	argv    []string
	timeout time.Duration
	limiter *rate.Limiter
}

var _ Notifier = (*HookNotifier)(nil)

// NewHookNotifier parses command with strings.Fields. At most one notification is
// sent per interval, with a burst of one; interval <= 0 disables throttling.
func NewHookNotifier(command string, interval time.Duration) (*HookNotifier, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &HookNotifier{
		argv:    argv,
		timeout: DefaultHookTimeout,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func (n *HookNotifier) Name() string { return "hook" }

func (n *HookNotifier) Wants(ev domain.CaptureEvent) bool { return ev.Notable() }

// Notify runs the command. Callers filter with Wants; every call counts against the
// rate limit.
func (n *HookNotifier) Notify(ctx context.Context, ev domain.CaptureEvent) error {
	if !n.limiter.Allow() {
		return ErrThrottled
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	args := append(append([]string(nil), n.argv[1:]...), Title(ev), Message(ev))
	cmd := exec.Command(n.argv[0], args...)
	cmd.Env = append(os.Environ(),
		"STREAMSHOT_EVENT_ID="+ev.ID,
		"STREAMSHOT_OUTCOME="+string(ev.Outcome),
		"STREAMSHOT_ERROR_KIND="+string(ev.ErrorKind),
		"STREAMSHOT_ERROR="+ev.ErrorDetail,
		"STREAMSHOT_SOURCE_URL="+ev.SourceURL,
		"STREAMSHOT_TIMESTAMP="+ev.Timestamp.Format(time.RFC3339),
	)
	stderr := media.NewRingBuffer(20)
	cmd.Stderr = stderr

	stopped, err := procgroup.Run(cmd, ctx.Done(), hookKillGrace)
	if stopped {
		return fmt.Errorf("notification command %s: %w", n.argv[0], ctx.Err())
	}
	if err != nil {
		if tail := stderr.Tail(3); tail != "" {
			return fmt.Errorf("notification command %s: %w: %s", n.argv[0], err, tail)
		}
		return fmt.Errorf("notification command %s: %w", n.argv[0], err)
	}
	return nil
}
