// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EngineStates lists every value reported by the engine state gauge.
var EngineStates = []string{"idle", "ticking", "resolving", "grabbing", "cooldown", "stopped"}

var (
	// TicksTotal counts engine ticks by outcome.
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshot_ticks_total",
		Help: "Total number of capture ticks by outcome",
	}, []string{"outcome"})

	// CaptureDuration tracks resolve plus grab time of attempted captures.
	CaptureDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamshot_capture_duration_seconds",
		Help:    "Time from tick start to captured frame or failure",
		Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 20, 30, 60},
	}, []string{"outcome"})

	// EngineState is 1 for the current engine state and 0 otherwise.
	EngineState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamshot_engine_state",
		Help: "Current capture engine state (1 = active)",
	}, []string{"state"})

	// ManualCaptureTotal counts capture-now requests.
	ManualCaptureTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamshot_manual_capture_total",
		Help: "Capture-now requests by result (started, coalesced, rejected)",
	}, []string{"result"})

	// LastCaptureTimestamp is the unix time of the last captured frame.
	LastCaptureTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamshot_last_capture_timestamp_seconds",
		Help: "Unix timestamp of the last successfully captured frame",
	})
)

// RecordTick records the outcome of one tick. Zero durations (skipped ticks) are not
// observed.
func RecordTick(outcome string, d time.Duration) {
	TicksTotal.WithLabelValues(outcome).Inc()
	if d > 0 {
		CaptureDuration.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// SetLastCapture records the time of a successful capture.
func SetLastCapture(t time.Time) {
	LastCaptureTimestamp.Set(float64(t.Unix()))
}

// SetEngineState flips the state gauge to state.
func SetEngineState(state string) {
	for _, s := range EngineStates {
		v := 0.0
		if s == state {
			v = 1
		}
		EngineState.WithLabelValues(s).Set(v)
	}
}

// IncManualCapture records a capture-now request.
func IncManualCapture(result string) {
	ManualCaptureTotal.WithLabelValues(result).Inc()
}
