// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package metrics registers the Prometheus instrumentation for the tracking
// core. Metrics are package-level promauto collectors registered against the
// default registry; the mock server exposes them on /metrics.
//
// Tracking outcomes use a fixed label vocabulary so cardinality stays bounded:
//
//   - outcome: tracked, already_tracked, duplicate, untracked, soft_fail,
//     transient, fatal
//   - sink outcome: delivered, failed, panic, skipped
package metrics
