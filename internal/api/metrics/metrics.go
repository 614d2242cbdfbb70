// Package metrics defines and registers all custom Prometheus metrics for
// the platform API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default registry at import time via
// promauto; the /metrics endpoint is wired by the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidhub"

// ── Session metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts account creations that completed successfully.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts successfully registered.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "invalid_credentials", or "not_found"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// TokenRefreshTotal counts refresh attempts.
// Label:
//   - result: "success", "invalid", or "mismatch" (stale token after rotation)
var TokenRefreshTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_refresh_total",
		Help:      "Total number of refresh-token rotations, labelled by result.",
	},
	[]string{"result"},
)

// ── Graph query metrics ───────────────────────────────────────────────────────

// GraphQueryDuration measures aggregation pipeline latency end-to-end.
// Label:
//   - query: "channel_profile" or "watch_history"
var GraphQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "graph_query_duration_seconds",
		Help:      "Duration of social-graph aggregation queries.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"query"},
)

// ── Watch-history metrics ─────────────────────────────────────────────────────

// HistoryAppendsTotal counts watch-history appends applied by the dispatcher.
var HistoryAppendsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_appends_total",
		Help:      "Total number of watch-history appends applied.",
	},
)

// HistoryAppendErrorsTotal counts appends that failed at the store.
var HistoryAppendErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_append_errors_total",
		Help:      "Total number of watch-history appends that failed.",
	},
)

// HistoryQueueDepth tracks the events waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var HistoryQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "history_queue_depth",
		Help:      "Current number of appends pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
