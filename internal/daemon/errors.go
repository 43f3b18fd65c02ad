// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingHandler is returned when the manager has no HTTP handler to serve.
	ErrMissingHandler = errors.New("HTTP handler is required")

	// ErrMissingListen is returned when the manager has no listen address.
	ErrMissingListen = errors.New("listen address is required")

	// ErrMissingManager is returned when an App is created without a manager.
	ErrMissingManager = errors.New("manager is required")

	// ErrManagerNotStarted is returned when shutting down a manager that never started.
	ErrManagerNotStarted = errors.New("manager not started")

	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("manager already started")

	// errQuit ends the run group when a quit was requested.
	errQuit = errors.New("quit requested")
)
