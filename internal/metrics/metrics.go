// Package metrics exposes engine operation counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts lifecycle and deployment operations by outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_operations_total",
		Help: "Engine operations by operation name and outcome.",
	}, []string{"operation", "outcome"})

	// OperationDuration tracks wall-clock time per operation. External
	// process steps dominate, so buckets reach into the tens of minutes.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_operation_duration_seconds",
		Help:    "Engine operation duration in seconds.",
		Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
	}, []string{"operation"})

	// ExternalToolFailures counts non-zero exits from spawned tools.
	ExternalToolFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_external_tool_failures_total",
		Help: "Failed external tool invocations by step.",
	}, []string{"step"})
)

// Observe records one finished operation.
func Observe(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
