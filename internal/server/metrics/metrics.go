// Package metrics holds the Prometheus collectors of the identity service.
// Collectors are package-level; RegisterMetrics must be called once at
// startup to expose them on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Hash operation labels.
const (
	OpHash   = "hash"
	OpVerify = "verify"
)

// AuthAttempts counts audited identity operations by action and outcome.
var AuthAttempts = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "organlink_auth_attempts_total",
		Help: "Total number of audited authentication and registration attempts",
	},
	[]string{"action", "status"},
)

// AuditAppendFailures counts audit records a sink failed to store.
var AuditAppendFailures = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "organlink_audit_append_failures_total",
		Help: "Total number of failed audit record appends",
	},
	[]string{"sink"},
)

// PasswordHashDuration observes bcrypt work, excluding time spent queued.
var PasswordHashDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "organlink_password_hash_seconds",
		Help:    "Password hash and verify duration in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	},
	[]string{"op"},
)

// HashGateRejections counts hash operations abandoned before completion.
var HashGateRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "organlink_password_hash_rejections_total",
		Help: "Total number of hash operations that timed out waiting or running",
	},
	[]string{"op", "stage"},
)

// RegisterMetrics registers every collector plus the Go and process
// collectors with reg. It panics on duplicate registration.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(
		AuthAttempts,
		AuditAppendFailures,
		PasswordHashDuration,
		HashGateRejections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// RecordAuthAttempt counts one audited attempt of action ending in status.
func RecordAuthAttempt(action, status string) {
	AuthAttempts.WithLabelValues(action, status).Inc()
}

// RecordAuditAppendFailure counts a record that sink failed to store.
func RecordAuditAppendFailure(sink string) {
	AuditAppendFailures.WithLabelValues(sink).Inc()
}

// RecordPasswordHash observes the duration of one bcrypt op.
func RecordPasswordHash(op string, d time.Duration) {
	PasswordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordHashGateRejection counts an op that timed out at stage ("wait" or "run").
func RecordHashGateRejection(op, stage string) {
	HashGateRejections.WithLabelValues(op, stage).Inc()
}
