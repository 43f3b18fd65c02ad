// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	ErrInvalidListen   = errors.New("invalid listen address")
	ErrInvalidTimeout  = errors.New("invalid timeout")
	ErrInvalidExporter = errors.New("invalid trace exporter")
	ErrInvalidSampling = errors.New("invalid trace sampling rate")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrEmptyPath       = errors.New("empty path")
)
