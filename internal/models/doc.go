// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package models defines the data structures shared by the tracking core.

Key Components:

  - Module: closed set of content domains (wallpaper, song, video, ...)
  - EventType: closed set of user actions (view, like, download, ...)
  - Event: one user action against a (module, item_id, event_type) triple
  - TrackingResult: outcome of a track or untrack call
  - AggregateStats: per-item event counts keyed by event type

Wire types (TrackRequest, TrackResponse, UntrackRequest, UntrackResponse,
StatsResponse, CheckResponse) mirror the JSON bodies exchanged with the
tracking backend under /api/analytics/.

Thread Safety:

All types are plain values. AggregateStats is a map and must be cloned before
it is shared across goroutines; use Clone.
*/
package models
