// Package metrics provides Prometheus metrics for the wellness service:
// progression activity, notifications, HTTP traffic and health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wellness"

// ─── Progression ────────────────────────────────────────────────────────────

// PointsAwarded tracks points added to balances, by source.
var PointsAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "points_awarded_total",
	Help:      "Total points awarded, by source.",
}, []string{"source"})

// Unlocks tracks one-way ledger transitions by event kind.
var Unlocks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "unlocks_total",
	Help:      "Achievements, milestones, challenge completions and level-ups.",
}, []string{"kind"})

// LedgerOpLatency tracks a full load-apply-save cycle per operation.
var LedgerOpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "ledger_op_duration_seconds",
	Help:      "Duration of ledger operations including persistence.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"op"})

// LedgerOpErrors tracks rejected or failed ledger operations.
var LedgerOpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "ledger_op_errors_total",
	Help:      "Ledger operations that returned an error, by op and reason.",
}, []string{"op", "reason"})

// Recommendations tracks recommendation queries and whether they matched.
var Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "recommendations_total",
	Help:      "Recommendation queries, labelled hit or empty.",
}, []string{"result"})

// CheckIns tracks recorded mood check-ins.
var CheckIns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "check_ins_total",
	Help:      "Mood check-ins recorded.",
})

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationsPublished tracks stored notifications by type.
var NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notifications_published_total",
	Help:      "Notifications stored for users, by type.",
}, []string{"type"})

// NotificationsSuppressed tracks notifications dropped by policy.
var NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "notifications_suppressed_total",
	Help:      "Notifications suppressed by policy, by reason.",
}, []string{"reason"})

// PushSent tracks push deliveries by outcome.
var PushSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "push_sent_total",
	Help:      "Push messages sent, by outcome.",
}, []string{"outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests tracks served requests by route pattern, method and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"route", "method", "status"})

// HTTPDuration tracks request latency by route pattern.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "http_request_duration_seconds",
	Help:      "Duration of HTTP requests.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})

// AuthRejections tracks requests refused by the identity or rate-limit layer.
var AuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "auth_rejections_total",
	Help:      "Requests rejected before reaching a handler, by reason.",
}, []string{"reason"})

// ─── Health ─────────────────────────────────────────────────────────────────

// HealthCheckStatus tracks health check results (1=healthy, 0=unhealthy).
var HealthCheckStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "health_check_status",
	Help:      "Health check result per component (1=healthy, 0=unhealthy).",
}, []string{"check"})

// HealthRecoveries tracks auto-recovery attempts.
var HealthRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "health_recoveries_total",
	Help:      "Total auto-recovery attempts per check.",
}, []string{"check"})
