// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package tracker

import "github.com/tomtom215/devotrack/internal/models"

// ApplyResult folds one track or untrack result into prev.
//
// A track updates the count only when the service recorded a new event; a
// duplicate carries no authoritative count and leaves prev alone. An untrack
// updates the count whenever it succeeded. When the count changes a new map
// is returned and prev is never mutated.
func ApplyResult(prev models.AggregateStats, op models.Operation, eventType models.EventType, result models.TrackingResult) models.AggregateStats {
	switch op {
	case models.OpTrack:
		if !result.Tracked {
			return prev
		}
	case models.OpUntrack:
		if !result.Success {
			return prev
		}
	default:
		return prev
	}

	next := prev.Clone()
	next[eventType] = max(result.UniqueCount, 0)
	return next
}
