// Package metrics defines and registers all custom Prometheus metrics for
// the N.Honest web API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation (promauto) and exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nhonest"

// ── Auth metrics ─────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "failed" or "locked"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// LockoutsTotal counts transitions into the locked state.
var LockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_lockouts_total",
		Help:      "Total number of login lockouts triggered.",
	},
)

// TokenRefreshesTotal counts successful token refreshes.
var TokenRefreshesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refreshes_total",
		Help:      "Total number of access tokens refreshed.",
	},
)

// ── Notification metrics ─────────────────────────────────────────────────────

// WSConnections tracks currently connected admin notification clients.
var WSConnections = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Current number of connected notification clients.",
	},
)

// WSRejectedTotal counts refused notification connections.
// Label:
//   - reason: "missing_token", "invalid_token" or "forbidden"
var WSRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_rejected_total",
		Help:      "Total number of rejected notification connections, by reason.",
	},
	[]string{"reason"},
)

// NotificationsPublishedTotal counts broadcast notifications.
// Label:
//   - type: order, stock, system or message
var NotificationsPublishedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_published_total",
		Help:      "Total number of notifications broadcast to admin clients.",
	},
	[]string{"type"},
)

// ── Payment metrics ──────────────────────────────────────────────────────────

// PaymentsTotal counts payment status changes.
// Label:
//   - status: "pending", "completed" or "failed"
var PaymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_total",
		Help:      "Total number of payment records reaching a status.",
	},
	[]string{"status"},
)

// PaymentPollDuration measures how long background verification took from
// enqueue to a terminal status or timeout.
// Label:
//   - status: the final payment status
var PaymentPollDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_poll_duration_seconds",
		Help:      "Duration of background payment verification.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	},
	[]string{"status"},
)

// VerifyQueueDepth tracks payments waiting in each verification worker.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var VerifyQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "payment_verify_queue_depth",
		Help:      "Current number of payments pending in each verification worker channel.",
	},
	[]string{"worker_id"},
)

// ── Order metrics ────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts placed orders.
var OrdersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed.",
	},
)

// InvoicesRenderedTotal counts generated invoice documents.
var InvoicesRenderedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invoices_rendered_total",
		Help:      "Total number of invoice PDFs rendered.",
	},
)
