// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "streamshot_notifications_total",
	Help: "User notifications by notifier and result (sent, suppressed, error)",
}, []string{"notifier", "result"})

// IncNotification records a notifier outcome.
func IncNotification(notifier, result string) {
	NotificationsTotal.WithLabelValues(notifier, result).Inc()
}
