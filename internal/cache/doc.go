// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package cache provides a bounded, TTL-aware LRU cache.
//
// The hook adapter uses it for its toggle cool-down: the last result of a
// (event type, operation) pair is kept for the cool-down window and replayed
// for repeat taps instead of issuing another network call.
package cache
