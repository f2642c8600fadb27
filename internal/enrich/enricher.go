// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package enrich

import (
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/devotrack/internal/identity"
)

// Runtime describes the host environment. All fields are optional.
type Runtime struct {
	UserAgent  string
	Platform   string // native shell hint: ios, android or web
	AppVersion string
	SessionID  string // generated when empty
}

// Enricher produces the metadata envelope for events. It is safe for
// concurrent use; the device description is computed once.
type Enricher struct {
	device     Device
	appVersion string
	sessionID  string
	identity   identity.Provider
	now        func() time.Time
}

// New creates an Enricher. id may be nil.
func New(rt Runtime, id identity.Provider) *Enricher {
	sessionID := rt.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &Enricher{
		device:     DescribeDevice(rt.UserAgent, rt.Platform),
		appVersion: rt.AppVersion,
		sessionID:  sessionID,
		identity:   id,
		now:        time.Now,
	}
}

// Device returns the derived device description.
func (e *Enricher) Device() Device {
	return e.device
}

// SessionID returns the per-process analytics session id.
func (e *Enricher) SessionID() string {
	return e.sessionID
}

// Enrich returns a new map holding the enrichment fields overridden by caller.
// caller is not modified.
func (e *Enricher) Enrich(caller map[string]any) map[string]any {
	base := e.device.Fields()
	base["session_id"] = e.sessionID
	base["timestamp"] = e.now().UTC().Format(time.RFC3339)
	if e.appVersion != "" {
		base["app_version"] = e.appVersion
	}
	if e.identity != nil {
		if city := e.identity.CityHint(); city != "" {
			base["city"] = city
		}
	}
	return Merge(base, caller)
}

// Merge returns a new map with every key of base and overrides; overrides
// win on collision. Neither input is modified.
func Merge(base, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
