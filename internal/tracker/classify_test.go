// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package tracker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/devotrack/internal/backend"
)

func TestClassifier_DefaultSignatures(t *testing.T) {
	t.Parallel()
	c := NewClassifier(nil)

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"postgres duplicate key", &backend.APIError{StatusCode: 500, Message: `duplicate key value violates unique constraint "x"`}, Duplicate},
		{"unique constraint", errors.New("UNIQUE CONSTRAINT failed: events.key"), Duplicate},
		{"unique_violation", errors.New("pq: unique_violation"), Duplicate},
		{"sqlstate", errors.New("ERROR: 23505"), Duplicate},
		{"prisma", errors.New("Invalid `prisma.event.create()` invocation: P2002"), Duplicate},
		{"already exists", fmt.Errorf("track: %w", errors.New("row already exists")), Duplicate},
		{"http conflict", &backend.APIError{StatusCode: http.StatusConflict}, Duplicate},
		{"deadline", context.DeadlineExceeded, Transient},
		{"canceled", fmt.Errorf("wrapped: %w", context.Canceled), Transient},
		{"circuit open", fmt.Errorf("%w: open", backend.ErrCircuitOpen), Transient},
		{"server error", &backend.APIError{StatusCode: 502, Body: "bad gateway"}, Transient},
		{"rate limited", &backend.APIError{StatusCode: 429}, Transient},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, Transient},
		{"bad request", &backend.APIError{StatusCode: 400, Message: "Missing required fields"}, Fatal},
		{"reported failure", &backend.APIError{StatusCode: 200, Message: "permission denied"}, Fatal},
		{"decode", errors.New("failed to decode response: invalid character"), Fatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.err), "Classify(%v)", tt.err)
		})
	}
}

func TestClassifier_CustomSignatures(t *testing.T) {
	t.Parallel()
	c := NewClassifier([]string{"  Record Exists ", ""})

	assert.Equal(t, Duplicate, c.Classify(errors.New("record exists for user")))
	assert.Equal(t, Fatal, c.Classify(errors.New("duplicate key")), "custom list replaces the defaults")
	assert.Equal(t, Duplicate, c.Classify(&backend.APIError{StatusCode: 409}), "409 always counts")
}

func TestClassifier_ZeroValueUsesDefaults(t *testing.T) {
	t.Parallel()
	var c *Classifier
	assert.True(t, c.IsDuplicate(errors.New("P2002")))
	assert.False(t, c.IsDuplicate(nil))
}

func TestClassifier_BreakerHealthy(t *testing.T) {
	t.Parallel()
	c := NewClassifier(nil)

	assert.True(t, c.BreakerHealthy(nil))
	assert.True(t, c.BreakerHealthy(&backend.APIError{StatusCode: 500, Message: "duplicate key"}))
	assert.True(t, c.BreakerHealthy(&backend.APIError{StatusCode: 400}))
	assert.False(t, c.BreakerHealthy(&backend.APIError{StatusCode: 503}))
	assert.False(t, c.BreakerHealthy(context.DeadlineExceeded))
}

func TestKind_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "duplicate", Duplicate.String())
	assert.Equal(t, "transient", Transient.String())
	assert.Equal(t, "fatal", Fatal.String())
}
