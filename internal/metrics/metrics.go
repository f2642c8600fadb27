// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for tracking calls.
const (
	OutcomeTracked        = "tracked"
	OutcomeAlreadyTracked = "already_tracked"
	OutcomeDuplicate      = "duplicate"
	OutcomeUntracked      = "untracked"
	OutcomeSoftFail       = "soft_fail"
	OutcomeTransient      = "transient"
	OutcomeFatal          = "fatal"
)

// Outcome labels for secondary sink deliveries.
const (
	SinkDelivered = "delivered"
	SinkFailed    = "failed"
	SinkPanic     = "panic"
	SinkSkipped   = "skipped"
)

var (
	// Tracking Metrics
	TrackingCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devotrack_tracking_calls_total",
			Help: "Total track and untrack calls by outcome",
		},
		[]string{"operation", "module", "event_type", "outcome"},
	)

	TrackingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "devotrack_tracking_duration_seconds",
			Help:    "Duration of backend tracking calls in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	StatsFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devotrack_stats_fetches_total",
			Help: "Total stats reads by module and result",
		},
		[]string{"module", "result"}, // result: "success", "failure"
	)

	CheckCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devotrack_check_calls_total",
			Help: "Total check-tracked queries by result",
		},
		[]string{"result"}, // result: "tracked", "untracked", "error"
	)

	HookCooldownHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "devotrack_hook_cooldown_hits_total",
			Help: "Toggle actions answered from the cool-down cache",
		},
	)

	// Secondary Sink Metrics
	SinkReports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devotrack_sink_reports_total",
			Help: "Total secondary sink deliveries by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)

	SinkInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "devotrack_sink_in_flight",
			Help: "Secondary sink deliveries currently in flight",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Mock Backend Metrics
	MockBackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devotrack_mock_backend_requests_total",
			Help: "Requests served by the mock tracking backend",
		},
		[]string{"route", "status"},
	)
)

// RecordTracking records one track or untrack call.
func RecordTracking(operation, module, eventType, outcome string, duration time.Duration) {
	TrackingCalls.WithLabelValues(operation, module, eventType, outcome).Inc()
	if duration > 0 {
		TrackingDuration.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// RecordStatsFetch records one stats read.
func RecordStatsFetch(module string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	StatsFetches.WithLabelValues(module, result).Inc()
}

// RecordCheck records one check-tracked query.
func RecordCheck(tracked bool, err error) {
	switch {
	case err != nil:
		CheckCalls.WithLabelValues("error").Inc()
	case tracked:
		CheckCalls.WithLabelValues("tracked").Inc()
	default:
		CheckCalls.WithLabelValues("untracked").Inc()
	}
}

// RecordSinkReport records one secondary sink delivery.
func RecordSinkReport(sink, outcome string) {
	SinkReports.WithLabelValues(sink, outcome).Inc()
}
