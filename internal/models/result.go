// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

// TrackingResult is the outcome of a track or untrack call.
//
// UniqueCount is the authoritative post-operation count when the server
// returned one. On the duplicate-swallowed path it is 0 and means "unknown",
// not "nobody has tracked this".
type TrackingResult struct {
	Success        bool  `json:"success"`
	Tracked        bool  `json:"tracked"`
	AlreadyTracked bool  `json:"already_tracked"`
	UniqueCount    int64 `json:"unique_count"`
}

// SoftFail is the structurally valid negative result returned whenever a
// call is skipped or fails.
func SoftFail() TrackingResult {
	return TrackingResult{}
}

// DuplicateResult is returned when the backend rejected a track because the
// identity already holds it.
func DuplicateResult() TrackingResult {
	return TrackingResult{Success: true, AlreadyTracked: true}
}
