// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts external tools in their own process group and tears the
// whole group down on cancellation.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/streamshot/internal/metrics"
)

// Terminate stops the process group of cmd: SIGTERM, then SIGKILL once grace has
// elapsed. waitCh must deliver the result of cmd.Wait; it is always drained and its
// error returned. Safe to call on a nil or unstarted command.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	signalGroup(cmd, syscall.SIGTERM)

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-timer.C:
	}

	signalGroup(cmd, syscall.SIGKILL)
	err := <-waitCh
	if err == nil {
		metrics.IncProcWait("forced_exit0")
	} else {
		metrics.IncProcWait("forced_error")
	}
	return err
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal) {
	name := "SIGTERM"
	if sig == syscall.SIGKILL {
		name = "SIGKILL"
	}
	switch err := Kill(cmd, sig); {
	case err == nil:
		metrics.IncProcTerminate(name, "sent")
	case errors.Is(err, syscall.ESRCH):
		metrics.IncProcTerminate(name, "esrch")
	default:
		metrics.IncProcTerminate(name, "error")
	}
}

// Run starts cmd in a new process group and waits for it. If stop is closed first the
// group is terminated with grace and stopped is true.
func Run(cmd *exec.Cmd, stop <-chan struct{}, grace time.Duration) (stopped bool, err error) {
	Set(cmd)
	if err := cmd.Start(); err != nil {
		return false, err
	}
	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		return false, err
	case <-stop:
		return true, Terminate(cmd, waitCh, grace)
	}
}
