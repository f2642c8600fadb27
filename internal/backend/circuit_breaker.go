// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/metrics"
	"github.com/tomtom215/devotrack/internal/models"
)

const breakerName = "tracking-api"

// CircuitBreakerClient wraps an API with the circuit breaker pattern so a
// failing tracking service is not hammered by every UI action.
//
// Only service-health failures count against the breaker. By default that is
// network errors, deadlines and 5xx/429 responses; a rejected duplicate or a
// 4xx validation error means the service is up. WithSuccessFunc replaces the
// predicate, which lets the tracker plug in its duplicate classifier.
//
// The breaker uses real time for its interval and timeout. Tests drive it by
// request counts rather than waiting for recovery.
type CircuitBreakerClient struct {
	api  API
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// BreakerOption configures a CircuitBreakerClient.
type BreakerOption func(*gobreaker.Settings)

// WithSuccessFunc overrides which errors are treated as healthy responses.
func WithSuccessFunc(fn func(err error) bool) BreakerOption {
	return func(s *gobreaker.Settings) { s.IsSuccessful = fn }
}

// NewCircuitBreakerClient wraps api with a breaker configured from cfg.
func NewCircuitBreakerClient(api API, cfg config.CircuitBreakerConfig, opts ...BreakerOption) *CircuitBreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(breakerName).Set(0)

	if cfg.MinRequests == 0 && cfg.FailureRatio == 0 {
		cfg = defaultBreakerConfig()
	}
	minRequests := cfg.MinRequests
	failureRatio := cfg.FailureRatio

	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := ratio >= failureRatio
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", ratio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: HealthyError,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	return &CircuitBreakerClient{
		api:  api,
		cb:   gobreaker.NewCircuitBreaker[interface{}](settings),
		name: breakerName,
	}
}

// HealthyError is the default breaker predicate. It reports true for nil and
// for errors that show the service answered normally.
func HealthyError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}

// State returns the breaker state.
func (cbc *CircuitBreakerClient) State() gobreaker.State {
	return cbc.cb.State()
}

// execute runs fn under breaker protection. Rejections surface as ErrCircuitOpen.
func (cbc *CircuitBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := cbc.cb.Execute(fn)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "failure").Inc()
		counts := cbc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(cbc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbc.name).Set(0)
	return result, nil
}

// castResult type-asserts the breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Track records an event with circuit breaker protection.
func (cbc *CircuitBreakerClient) Track(ctx context.Context, req *models.TrackRequest) (*models.TrackResponse, error) {
	return castResult[models.TrackResponse](cbc.execute(func() (interface{}, error) {
		return cbc.api.Track(ctx, req)
	}))
}

// Untrack revokes an event with circuit breaker protection.
func (cbc *CircuitBreakerClient) Untrack(ctx context.Context, req *models.UntrackRequest) (*models.UntrackResponse, error) {
	return castResult[models.UntrackResponse](cbc.execute(func() (interface{}, error) {
		return cbc.api.Untrack(ctx, req)
	}))
}

// Stats fetches item counts with circuit breaker protection.
func (cbc *CircuitBreakerClient) Stats(ctx context.Context, module, itemID string) (*models.StatsResponse, error) {
	return castResult[models.StatsResponse](cbc.execute(func() (interface{}, error) {
		return cbc.api.Stats(ctx, module, itemID)
	}))
}

// Check queries tracked state with circuit breaker protection.
func (cbc *CircuitBreakerClient) Check(ctx context.Context, module, itemID, eventType, userID string) (*models.CheckResponse, error) {
	return castResult[models.CheckResponse](cbc.execute(func() (interface{}, error) {
		return cbc.api.Check(ctx, module, itemID, eventType, userID)
	}))
}

var (
	_ API = (*Client)(nil)
	_ API = (*CircuitBreakerClient)(nil)
)

// defaultBreakerConfig mirrors the config defaults for callers that pass a zero value.
func defaultBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  3,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  10,
		FailureRatio: 0.6,
	}
}
