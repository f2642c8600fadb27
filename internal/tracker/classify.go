// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package tracker

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/tomtom215/devotrack/internal/backend"
	"github.com/tomtom215/devotrack/internal/config"
)

// Kind is the classification of a failed tracking call.
type Kind int

const (
	// Fatal failures are programming or contract errors: other 4xx, bad payloads.
	Fatal Kind = iota
	// Duplicate means the service already holds the record.
	Duplicate
	// Transient failures may clear on their own: timeouts, network, 5xx, 429.
	Transient
)

func (k Kind) String() string {
	switch k {
	case Duplicate:
		return "duplicate"
	case Transient:
		return "transient"
	default:
		return "fatal"
	}
}

// Classifier maps errors to a Kind. The zero value uses the default signatures.
type Classifier struct {
	signatures []string
}

// NewClassifier builds a classifier. Signatures match case-insensitively as
// substrings of the error text; an empty list selects config.DefaultDuplicateSignatures.
func NewClassifier(signatures []string) *Classifier {
	c := &Classifier{}
	for _, s := range signatures {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			c.signatures = append(c.signatures, s)
		}
	}
	return c
}

func (c *Classifier) patterns() []string {
	if c == nil || len(c.signatures) == 0 {
		return defaultSignatures
	}
	return c.signatures
}

var defaultSignatures = func() []string {
	out := make([]string, len(config.DefaultDuplicateSignatures))
	for i, s := range config.DefaultDuplicateSignatures {
		out[i] = strings.ToLower(s)
	}
	return out
}()

// Classify returns the Kind of err. err must be non-nil.
func (c *Classifier) Classify(err error) Kind {
	if c.IsDuplicate(err) {
		return Duplicate
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, backend.ErrCircuitOpen) {
		return Transient
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Temporary() {
			return Transient
		}
		return Fatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient
	}
	return Fatal
}

// IsDuplicate reports whether err signals an existing record.
func (c *Classifier) IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Conflict() {
		return true
	}
	text := strings.ToLower(err.Error())
	for _, sig := range c.patterns() {
		if strings.Contains(text, sig) {
			return true
		}
	}
	return false
}

// BreakerHealthy is a backend.WithSuccessFunc predicate: duplicates and fatal
// client errors mean the service answered, so only transient failures count.
func (c *Classifier) BreakerHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return c.Classify(err) != Transient
}
