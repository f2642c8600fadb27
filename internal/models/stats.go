// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

// AggregateStats maps an event type to its unique count for one item.
type AggregateStats map[EventType]int64

// Get returns the count for e, or 0 when absent.
func (s AggregateStats) Get(e EventType) int64 {
	if s == nil {
		return 0
	}
	return s[e]
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (s AggregateStats) Clone() AggregateStats {
	out := make(AggregateStats, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// StatsFromWire converts the backend's string-keyed counts, dropping
// negative values.
func StatsFromWire(raw map[string]int64) AggregateStats {
	out := make(AggregateStats, len(raw))
	for k, v := range raw {
		if v < 0 {
			continue
		}
		out[EventType(k)] = v
	}
	return out
}
