// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	xglog "github.com/ManuGH/streamshot/internal/log"
	"github.com/ManuGH/streamshot/internal/procgroup"
	"github.com/rs/zerolog"
)

const (
	DefaultKillGrace = 2 * time.Second
	stderrLines      = 50
)

// ErrToolNotFound is returned when the binary cannot be located.
var ErrToolNotFound = errors.New("tool binary not found")

// result of one tool run.
type result struct {
	stdout   []byte
	stderr   *RingBuffer
	duration time.Duration
	// canceled is set when ctx ended the run; err then holds ctx.Err().
	canceled bool
}

// tool runs one external binary in its own process group.
type tool struct {
	bin    string
	grace  time.Duration
	logger zerolog.Logger
}

func newTool(bin, component string, grace time.Duration) tool {
	if grace <= 0 {
		grace = DefaultKillGrace
	}
	return tool{bin: bin, grace: grace, logger: xglog.WithComponent(component)}
}

// run executes the tool until it exits or ctx is done. On cancellation the process
// group is terminated (SIGTERM, grace, SIGKILL) before run returns.
func (t tool) run(ctx context.Context, args ...string) (result, error) {
	path, err := exec.LookPath(t.bin)
	if err != nil {
		return result{}, fmt.Errorf("%w: %s: %v", ErrToolNotFound, t.bin, err)
	}

	var stdout bytes.Buffer
	res := result{stderr: NewRingBuffer(stderrLines)}
	cmd := exec.Command(path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = res.stderr

	start := time.Now()
	stopped, runErr := procgroup.Run(cmd, ctx.Done(), t.grace)
	res.duration = time.Since(start)
	res.stdout = stdout.Bytes()

	logger := xglog.WithContext(ctx, t.logger)
	ev := logger.Debug().
		Str("event", "tool.exit").
		Str("bin", t.bin).
		Dur("duration", res.duration)
	if cmd.Process != nil {
		ev = ev.Int(xglog.FieldPID, cmd.Process.Pid)
	}
	ev.Bool("stopped", stopped).Err(runErr).Msg("external tool finished")

	if stopped {
		res.canceled = true
		return res, ctx.Err()
	}
	return res, runErr
}

// Available reports whether the binary is on PATH.
func Available(bin string) error {
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("%w: %s", ErrToolNotFound, bin)
	}
	return nil
}
