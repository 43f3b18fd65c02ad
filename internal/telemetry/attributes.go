// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on capture spans.
const (
	CaptureTriggerKey    = "capture.trigger"
	CaptureOutcomeKey    = "capture.outcome"
	CaptureSourceURLKey  = "capture.source_url"
	CaptureResolutionKey = "capture.resolution"
	CapturePathKey       = "capture.path"

	StreamFormatIDKey = "stream.format_id"
	StreamHeightKey   = "stream.height"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CaptureAttributes describes the tick being run.
func CaptureAttributes(trigger, sourceURL, resolution string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(CaptureTriggerKey, trigger)}
	if sourceURL != "" {
		attrs = append(attrs, attribute.String(CaptureSourceURLKey, sourceURL))
	}
	if resolution != "" {
		attrs = append(attrs, attribute.String(CaptureResolutionKey, resolution))
	}
	return attrs
}

// StreamAttributes describes the selected stream format.
func StreamAttributes(formatID string, height int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StreamFormatIDKey, formatID),
		attribute.Int(StreamHeightKey, height),
	}
}

// ErrorAttributes marks a span as failed with an error class.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
