// Package metrics provides Prometheus metrics for remote calls, the tree
// cache and authorization attempts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repolens_remote_requests_total",
			Help: "Total number of calls made to the remote provider",
		},
		[]string{"op", "status"},
	)

	remoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repolens_remote_request_duration_seconds",
			Help:    "Remote provider call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	treeExpandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repolens_tree_expand_total",
			Help: "Tree expand calls by result (hit, miss, coalesced, stale, error)",
		},
		[]string{"result"},
	)

	authOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repolens_auth_outcomes_total",
			Help: "Authorization attempts by outcome",
		},
		[]string{"outcome"},
	)

	sessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "repolens_sessions_active",
			Help: "Number of live console sessions",
		},
	)
)

// RecordRemoteCall records one provider call; status is an error kind or "ok".
func RecordRemoteCall(op, status string, d time.Duration) {
	remoteRequestsTotal.WithLabelValues(op, status).Inc()
	remoteRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

func RecordExpand(result string) {
	treeExpandTotal.WithLabelValues(result).Inc()
}

func RecordAuthOutcome(outcome string) {
	authOutcomesTotal.WithLabelValues(outcome).Inc()
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
