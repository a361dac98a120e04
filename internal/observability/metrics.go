// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "jobboard_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthEvents counts register, login and logout attempts by outcome.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_auth_events_total",
		Help: "Total authentication events by event and outcome",
	}, []string{"event", "outcome"})

	// JobMutations counts job create, update and delete attempts by outcome.
	JobMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_job_mutations_total",
		Help: "Total job mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// CacheLookups counts cache-aside lookups by cache name and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "jobboard_cache_lookups_total",
		Help: "Total cache lookups by cache and result (hit, miss, error)",
	}, []string{"cache", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error code to a low-cardinality metric label.
func Outcome(code string) string {
	if code == "" {
		return "success"
	}
	return code
}
