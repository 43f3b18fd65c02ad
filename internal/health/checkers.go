// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
	"github.com/ManuGH/streamshot/internal/fsutil"
	"github.com/ManuGH/streamshot/internal/media"
)

// FuncChecker adapts a function returning an error. A nil error is healthy; failure
// maps to the configured status.
type FuncChecker struct {
	name    string
	failAs  Status
	timeout time.Duration
	fn      func(ctx context.Context) error
}

// NewFuncChecker returns a checker that reports failAs when fn fails.
func NewFuncChecker(name string, failAs Status, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, failAs: failAs, timeout: 2 * time.Second, fn: fn}
}

func (c *FuncChecker) Name() string { return c.name }

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.fn(ctx); err != nil {
		return CheckResult{Status: c.failAs, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// SettingsFunc returns the current settings.
type SettingsFunc func() domain.Settings

// OutputDirChecker verifies the configured output directory can be written.
type OutputDirChecker struct {
	settings SettingsFunc
}

func NewOutputDirChecker(settings SettingsFunc) *OutputDirChecker {
	return &OutputDirChecker{settings: settings}
}

func (c *OutputDirChecker) Name() string { return "output_directory" }

func (c *OutputDirChecker) Check(context.Context) CheckResult {
	dir := c.settings().OutputDirectory
	if err := fsutil.EnsureDir(dir); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: dir, Error: err.Error()}
	}
	if err := fsutil.CheckWritable(dir); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: dir, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: dir}
}

// SettingsChecker reports invalid settings as unhealthy and a missing stream URL as
// degraded, since the daemon runs but cannot capture.
type SettingsChecker struct {
	settings SettingsFunc
}

func NewSettingsChecker(settings SettingsFunc) *SettingsChecker {
	return &SettingsChecker{settings: settings}
}

func (c *SettingsChecker) Name() string { return "settings" }

func (c *SettingsChecker) Check(context.Context) CheckResult {
	s := c.settings()
	if err := s.Validate(); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if s.SourceURL == "" {
		return CheckResult{Status: StatusDegraded, Message: "no stream URL configured"}
	}
	if s.Paused {
		return CheckResult{Status: StatusHealthy, Message: "paused"}
	}
	return CheckResult{Status: StatusHealthy}
}

// ToolChecker verifies an external binary is on PATH.
type ToolChecker struct {
	bin string
}

func NewToolChecker(bin string) *ToolChecker { return &ToolChecker{bin: bin} }

func (c *ToolChecker) Name() string { return fmt.Sprintf("tool:%s", c.bin) }

func (c *ToolChecker) Check(context.Context) CheckResult {
	if err := media.Available(c.bin); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}
