// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolverRequestsTotal counts Resolve calls by result: hit, miss, shared or error.
	ResolverRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshot_resolver_requests_total",
		Help: "Stream resolution requests by cache result",
	}, []string{"result"})

	// ResolverToolDuration tracks yt-dlp invocation time.
	ResolverToolDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamshot_resolver_tool_duration_seconds",
		Help:    "Time spent resolving a stream with the external tool",
		Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 20, 30},
	})

	// ResolverErrorsTotal counts resolution failures by reason.
	ResolverErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshot_resolver_errors_total",
		Help: "Stream resolution failures by reason",
	}, []string{"reason"})
)

// IncResolverRequest records a Resolve call result.
func IncResolverRequest(result string) {
	ResolverRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveResolverTool records one tool invocation.
func ObserveResolverTool(d time.Duration) {
	ResolverToolDuration.Observe(d.Seconds())
}

// IncResolverError records a failure reason.
func IncResolverError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	ResolverErrorsTotal.WithLabelValues(reason).Inc()
}
