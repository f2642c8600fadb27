// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

// TrackRequest is the body of POST /api/analytics/track.
type TrackRequest struct {
	ModuleName string         `json:"module_name" validate:"required,module"`
	ItemID     string         `json:"item_id" validate:"required,max=256"`
	EventType  string         `json:"event_type" validate:"required,event_type"`
	UserID     string         `json:"user_id,omitempty"`
	Metadata   map[string]any `json:"metadata"`
}

// TrackResponse is returned by the track endpoint.
type TrackResponse struct {
	Success        bool   `json:"success"`
	Tracked        bool   `json:"tracked"`
	AlreadyTracked bool   `json:"already_tracked"`
	UniqueCount    int64  `json:"unique_count"`
	Error          string `json:"error,omitempty"`
}

// Result converts the wire response into a TrackingResult verbatim.
func (r TrackResponse) Result() TrackingResult {
	return TrackingResult{
		Success:        r.Success,
		Tracked:        r.Tracked,
		AlreadyTracked: r.AlreadyTracked,
		UniqueCount:    r.UniqueCount,
	}
}

// UntrackRequest is the body of POST /api/analytics/untrack.
type UntrackRequest struct {
	ModuleName string `json:"module_name" validate:"required,module"`
	ItemID     string `json:"item_id" validate:"required,max=256"`
	EventType  string `json:"event_type" validate:"required,event_type"`
	UserID     string `json:"user_id,omitempty"`
}

// UntrackResponse is returned by the untrack endpoint.
type UntrackResponse struct {
	Success     bool   `json:"success"`
	Removed     bool   `json:"removed"`
	UniqueCount int64  `json:"unique_count"`
	Error       string `json:"error,omitempty"`
}

// StatsResponse is returned by GET /api/analytics/stats/{module}/{item}.
type StatsResponse struct {
	Success bool             `json:"success"`
	Module  string           `json:"module"`
	ItemID  string           `json:"item_id"`
	Stats   map[string]int64 `json:"stats"`
	Error   string           `json:"error,omitempty"`
}

// CheckResponse is returned by GET /api/analytics/check/{module}/{item}/{event}.
type CheckResponse struct {
	Success bool   `json:"success"`
	Tracked bool   `json:"tracked"`
	Error   string `json:"error,omitempty"`
}
