// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"errors"
	"time"

	"github.com/ManuGH/streamshot/internal/domain"
)

// State is the engine lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateTicking   State = "ticking"
	StateResolving State = "resolving"
	StateGrabbing  State = "grabbing"
	StateCooldown  State = "cooldown"
	StateStopped   State = "stopped"
)

// Trigger says why a cycle ran.
type Trigger string

const (
	TriggerTimer  Trigger = "timer"
	TriggerManual Trigger = "manual"
)

// CaptureResult answers a capture-now request.
type CaptureResult string

const (
	// CaptureStarted means a cycle began immediately.
	CaptureStarted CaptureResult = "started"
	// CaptureCoalesced means a cycle is running; one more runs right after it.
	CaptureCoalesced CaptureResult = "coalesced"
)

var (
	ErrStopped    = errors.New("engine stopped")
	ErrRunning    = errors.New("engine already running")
	ErrMissingDep = errors.New("engine dependency missing")
)

// Status is a point-in-time view for the control API.
type Status struct {
	State     State                `json:"state"`
	Busy      bool                 `json:"busy"`
	Pending   bool                 `json:"pending"`
	NextTick  time.Time            `json:"nextTick,omitzero"`
	LastEvent *domain.CaptureEvent `json:"lastEvent,omitempty"`
	Captured  int64                `json:"captured"`
	Failed    int64                `json:"failed"`
	Skipped   int64                `json:"skipped"`
}
