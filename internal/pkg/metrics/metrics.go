// Package metrics defines and registers all custom Prometheus metrics for the
// ferry booking API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ferry"

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionEventsTotal counts identity store session events handled by the registry.
// Labels:
//   - kind: "signed_in", "signed_out", "token_refreshed", "expired"
//   - result: "applied" or "ignored" (no live session slot for the event)
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of identity store session events handled.",
	},
	[]string{"kind", "result"},
)

// ProfileResolutionsTotal counts profile resolutions by outcome.
// Label:
//   - outcome: "loaded", "created", "ephemeral", "stale", "aborted"
var ProfileResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_resolutions_total",
		Help:      "Total number of profile resolutions, labelled by outcome.",
	},
	[]string{"outcome"},
)

// ActiveSessions tracks the number of session slots held by this instance.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of client session slots held in memory.",
	},
)

// SessionQueueDepth tracks pending session events per dispatcher worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var SessionQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "session_queue_depth",
		Help:      "Current number of session events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Booking metrics ───────────────────────────────────────────────────────────

// BookingsCreatedTotal counts bookings written to the local cache.
// Label:
//   - route_id: the booked route
var BookingsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_created_total",
		Help:      "Total number of bookings created, by route.",
	},
	[]string{"route_id"},
)

// BookingRemoteErrorsTotal counts failures of the remote booking table that
// were absorbed by the booking store.
// Label:
//   - op: "insert", "list", "update_status"
var BookingRemoteErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_remote_errors_total",
		Help:      "Total number of absorbed remote booking table failures.",
	},
	[]string{"op"},
)

// CheckoutsTotal counts checkout outcomes.
// Label:
//   - result: "opened", "confirmed", "cancelled", "replayed", "failed"
var CheckoutsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Total number of checkout steps, labelled by result.",
	},
	[]string{"result"},
)

// BookingRevenueTotal accumulates the amount of confirmed bookings in naira.
var BookingRevenueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_revenue_naira_total",
		Help:      "Total amount of bookings confirmed by payment, in naira.",
	},
)
