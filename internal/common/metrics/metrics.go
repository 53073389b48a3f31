// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_scans_completed_total",
			Help: "Total number of completed deadline scans",
		},
	)

	ScansSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_scans_skipped_total",
			Help: "Total number of scans skipped by the single-flight guard",
		},
		[]string{"reason"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "reminder_scan_duration_seconds",
			Help: "Duration of one full deadline scan in seconds",
		},
	)

	RemindersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_dispatched_total",
			Help: "Total reminder notifications dispatched",
		},
		[]string{"threshold", "channel"},
	)

	ReminderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_failures_total",
			Help: "Total reminder dispatch failures by error category",
		},
		[]string{"threshold", "error_category"},
	)
)
