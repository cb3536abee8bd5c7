// Package metrics holds the Prometheus collectors for the attendance engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvitesTotal counts invite generation attempts.
	// Labels:
	//   - outcome: "created", "duplicate", "rejected", "error"
	InvitesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_invites_total",
			Help: "Total number of invite generation attempts",
		},
		[]string{"outcome"},
	)

	// JoinsTotal counts join token presentations.
	// Labels:
	//   - outcome: "joined", "rejoined", "invalid", "closed", "expired", "error"
	JoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_joins_total",
			Help: "Total number of join token presentations",
		},
		[]string{"outcome"},
	)

	// ConfirmationsTotal counts confirmation attempts by redirect outcome.
	ConfirmationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_confirmations_total",
			Help: "Total number of attendance confirmation attempts",
		},
		[]string{"outcome"},
	)

	// ScansTotal counts physical badge scans.
	// Labels:
	//   - outcome: "recorded", "already_scanned", "unknown_badge", "meeting_not_found", "error"
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_scans_total",
			Help: "Total number of physical badge scans",
		},
		[]string{"outcome"},
	)

	MeetingsClosedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_meetings_closed_total",
			Help: "Total number of meetings closed",
		},
	)

	// NotificationsTotal counts outbound notifications.
	// Labels:
	//   - kind: "invite", "confirmation", "badge"
	//   - outcome: "sent", "failed"
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_notifications_total",
			Help: "Total number of outbound notifications",
		},
		[]string{"kind", "outcome"},
	)

	// NotificationSendDuration measures a single send including waiting on the limiter.
	NotificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attendance_notification_send_seconds",
			Help:    "Duration of a single notification send in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)
)
