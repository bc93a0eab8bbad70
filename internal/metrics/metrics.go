// Package metrics holds the Prometheus collectors shared by the API server
// and the reminder worker. Collectors register on the default registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tracker"

// Notification sources.
const (
	SourceAPI      = "api"
	SourceReminder = "reminder"
)

// NotificationsBuilt counts notifications produced, by caller.
var NotificationsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notifications",
	Name:      "built_total",
	Help:      "Total notifications built for due transactions.",
}, []string{"source"})

// RecurrenceRulesSkipped counts recurring transactions left out of a
// notification scan because their rule was malformed.
var RecurrenceRulesSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "notifications",
	Name:      "malformed_rules_skipped_total",
	Help:      "Total recurring transactions skipped for a malformed recurrence rule.",
})

// AnalyticsRequests counts analytics reports by period.
var AnalyticsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "analytics",
	Name:      "requests_total",
	Help:      "Total analytics reports computed, by period.",
}, []string{"period"})

// TransactionEvents counts transaction writes, by action.
var TransactionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "transactions",
	Name:      "events_total",
	Help:      "Total transaction writes, by action.",
}, []string{"action"})

// RemindersPublished counts reminder messages handed to the broker.
var RemindersPublished = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reminders",
	Name:      "published_total",
	Help:      "Total reminder notifications published.",
})

// ReminderPublishErrors counts failed reminder publishes.
var ReminderPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reminders",
	Name:      "publish_errors_total",
	Help:      "Total reminder notifications that failed to publish.",
})

// ReminderRunDuration tracks how long one reminder sweep takes.
var ReminderRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "reminders",
	Name:      "run_duration_seconds",
	Help:      "Duration of a reminder sweep over all users.",
	Buckets:   prometheus.DefBuckets,
})

// HTTPRequestDuration tracks request latency by route pattern.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by method, route and status class.",
	Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
}, []string{"method", "route", "status"})

// RateLimited counts requests rejected by the per-client rate limiter.
var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Total requests rejected by the rate limiter.",
})

// SuspiciousRequests counts requests matching known probe patterns.
var SuspiciousRequests = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Total requests flagged by the probe detector.",
})

// CacheLookups counts cache reads by cache name and result (hit or miss).
var CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Total cache lookups, by cache and result.",
}, []string{"cache", "result"})

// CacheEntriesExpired counts entries removed by the periodic cache sweep.
var CacheEntriesExpired = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "cache",
	Name:      "expired_entries_total",
	Help:      "Total expired cache entries removed by the cleanup sweep.",
})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
