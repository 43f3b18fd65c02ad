// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

import "errors"

var (
	// ErrUnknownSettingsField classifies strict YAML parse failures caused by unknown keys.
	ErrUnknownSettingsField = errors.New("unknown settings field")

	// ErrStoreClosed is returned by Update after Close.
	ErrStoreClosed = errors.New("settings store closed")
)
