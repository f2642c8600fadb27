// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package identity

// Provider reports the current identity. Both methods return "" when the
// value is absent and must return near-instantly with no network calls.
type Provider interface {
	CurrentUserID() string
	CityHint() string
}

// Watcher notifies subscribers when the signed-in user changes.
type Watcher interface {
	// Subscribe registers fn and returns a function that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

// Anonymous is a Provider with no session and no hint.
type Anonymous struct{}

func (Anonymous) CurrentUserID() string { return "" }
func (Anonymous) CityHint() string      { return "" }

// Static is a fixed Provider, used by the CLI and tests.
type Static struct {
	UserID string
	City   string
}

func (s Static) CurrentUserID() string { return s.UserID }
func (s Static) CityHint() string      { return s.City }
