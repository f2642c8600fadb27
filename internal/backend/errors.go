// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCircuitOpen is returned while the circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("backend: circuit breaker open")

// APIError is returned when the tracking service answered with a failure.
//
// StatusCode is the HTTP status. For a 200 response carrying success:false it
// stays 200 and Message holds the reported error text.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("backend: status %d: %s", e.StatusCode, msg)
}

// Temporary reports whether the status indicates a server-side or rate limit
// condition that may clear on its own.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Conflict reports whether the service rejected the write as a duplicate.
func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}
