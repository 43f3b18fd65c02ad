// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package domain

import (
	"errors"
	"fmt"
)

// Error classes. Match with errors.Is against the typed errors below.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrResolution    = errors.New("resolution error")
	ErrCapture       = errors.New("capture error")
	ErrScheduling    = errors.New("scheduling error")
)

// ErrorKind names an error class in events and API responses.
type ErrorKind string

const (
	KindNone          ErrorKind = ""
	KindConfiguration ErrorKind = "configuration"
	KindResolution    ErrorKind = "resolution"
	KindCapture       ErrorKind = "capture"
	KindScheduling    ErrorKind = "scheduling"
	KindInternal      ErrorKind = "internal"
)

// KindOf classifies err into one of the error classes.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrResolution):
		return KindResolution
	case errors.Is(err, ErrCapture):
		return KindCapture
	case errors.Is(err, ErrScheduling):
		return KindScheduling
	}
	return KindInternal
}

// ConfigurationError reports a missing or invalid setting. Capture stays gated off
// until the setting is fixed.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error        { return e.Err }
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ResolutionReason narrows a ResolutionError.
type ResolutionReason string

const (
	ReasonInvalidURL  ResolutionReason = "invalid_url"
	ReasonOffline     ResolutionReason = "offline"
	ReasonUnavailable ResolutionReason = "unavailable"
	ReasonNoFormats   ResolutionReason = "no_formats"
	ReasonToolFailure ResolutionReason = "tool_failure"
	ReasonTimeout     ResolutionReason = "timeout"
)

// ResolutionError reports that a watch URL could not be turned into a media URL.
type ResolutionError struct {
	URL        string
	Resolution Resolution
	Reason     ResolutionReason
	Detail     string
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve %s (%s): %s", e.URL, e.Resolution, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error        { return e.Err }
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// CaptureError reports a failed frame grab.
type CaptureError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	msg := fmt.Sprintf("capture %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CaptureError) Unwrap() error        { return e.Err }
func (e *CaptureError) Is(target error) bool { return target == ErrCapture }

// SchedulingError reports a failed sun time computation. The gate treats it as
// "capture disallowed".
type SchedulingError struct {
	Reason string
	Err    error
}

func (e *SchedulingError) Error() string {
	msg := "scheduling: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchedulingError) Unwrap() error        { return e.Err }
func (e *SchedulingError) Is(target error) bool { return target == ErrScheduling }
