// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package consent stores the user's analytics consent choice.
//
// Consent defaults to enabled: a missing, unreadable or malformed record
// counts as granted, and only an explicit {"analytics": false} withdraws it.
package consent

import (
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/devotrack/internal/identity"
)

// State is the persisted consent record.
type State struct {
	Analytics bool `json:"analytics"`
}

// Gate reads and writes consent through a HintStore. It is safe for
// concurrent use.
type Gate struct {
	hints identity.HintStore

	mu        sync.Mutex
	listeners []func(enabled bool)
}

// NewGate creates a gate backed by hints. A nil store always reports enabled.
func NewGate(hints identity.HintStore) *Gate {
	return &Gate{hints: hints}
}

// Enabled reports whether analytics tracking is allowed.
func (g *Gate) Enabled() bool {
	if g == nil || g.hints == nil {
		return true
	}

	raw, err := g.hints.Get(identity.KeyAnalyticsConsent)
	if err != nil || raw == "" {
		return true
	}

	// Decode into a pointer so a record without the field stays enabled.
	var rec struct {
		Analytics *bool `json:"analytics"`
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Analytics == nil {
		return true
	}
	return *rec.Analytics
}

// HasStored reports whether the user has made an explicit choice.
func (g *Gate) HasStored() bool {
	if g == nil || g.hints == nil {
		return false
	}
	_, err := g.hints.Get(identity.KeyAnalyticsConsent)
	return err == nil
}

// Set persists the choice and notifies subscribers.
func (g *Gate) Set(enabled bool) error {
	if g.hints == nil {
		return errors.New("consent: no hint store configured")
	}

	data, err := json.Marshal(State{Analytics: enabled})
	if err != nil {
		return fmt.Errorf("marshal consent: %w", err)
	}
	if err := g.hints.Set(identity.KeyAnalyticsConsent, string(data)); err != nil {
		return fmt.Errorf("store consent: %w", err)
	}

	g.mu.Lock()
	fns := append([]func(bool){}, g.listeners...)
	g.mu.Unlock()

	for _, fn := range fns {
		fn(enabled)
	}
	return nil
}

// OnChange registers fn to run after every Set.
func (g *Gate) OnChange(fn func(enabled bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}
