package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Supervisor metrics track the connection lifecycle of each external service.
var (
	// ConnectionAttemptsTotal counts individual connect+verify attempts by outcome
	ConnectionAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_connection_attempts_total",
			Help: "Total number of connection establishment attempts",
		},
		[]string{"service", "result"}, // result: success, failure
	)

	// RecreationsTotal counts handles discarded after a failed ping
	RecreationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_recreations_total",
			Help: "Total number of connection handles replaced after a failed ping",
		},
		[]string{"service"},
	)

	// HealthChecksTotal counts health checks by observed result
	HealthChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_health_checks_total",
			Help: "Total number of supervisor health checks",
		},
		[]string{"service", "result"}, // result: healthy, unhealthy
	)

	// DisposalErrorsTotal counts errors returned while closing a handle
	DisposalErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supervisor_disposal_errors_total",
			Help: "Total number of errors while releasing connection handles",
		},
		[]string{"service"},
	)

	// State exposes the lifecycle state as a number
	// (0 absent, 1 creating, 2 live, 3 degraded)
	State = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "supervisor_state",
			Help: "Current supervisor lifecycle state (0=absent, 1=creating, 2=live, 3=degraded)",
		},
		[]string{"service"},
	)

	// CreateDuration measures a whole establishment sequence including backoff.
	// Buckets reach past the worst case of the default retry budget.
	CreateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supervisor_create_duration_seconds",
			Help:    "Duration of connection establishment sequences in seconds",
			Buckets: []float64{.005, .025, .1, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service"},
	)

	// BreakerTransitionsTotal counts circuit breaker state changes
	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"breaker", "to"},
	)
)

// RecordConnectionAttempt records the outcome of one connect+verify attempt.
func RecordConnectionAttempt(service string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	ConnectionAttemptsTotal.WithLabelValues(service, result).Inc()
}

// RecordRecreation records that a stale handle was discarded.
func RecordRecreation(service string) {
	RecreationsTotal.WithLabelValues(service).Inc()
}

// RecordHealthCheck records the result reported by a health check.
func RecordHealthCheck(service string, healthy bool) {
	result := "healthy"
	if !healthy {
		result = "unhealthy"
	}
	HealthChecksTotal.WithLabelValues(service, result).Inc()
}

// RecordDisposalError records a failure to release a handle.
func RecordDisposalError(service string) {
	DisposalErrorsTotal.WithLabelValues(service).Inc()
}

// SetState publishes the numeric lifecycle state of a supervisor.
func SetState(service string, state int) {
	State.WithLabelValues(service).Set(float64(state))
}

// RecordCreateDuration records how long an establishment sequence took.
func RecordCreateDuration(service string, d time.Duration) {
	CreateDuration.WithLabelValues(service).Observe(d.Seconds())
}

// RecordBreakerTransition records a circuit breaker moving into state to.
func RecordBreakerTransition(breaker, to string) {
	BreakerTransitionsTotal.WithLabelValues(breaker, to).Inc()
}
