// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package sink mirrors newly tracked events to secondary analytics
// destinations.
//
// The primary tracking service is the store of record. Everything here is
// best-effort: Dispatcher delivers on its own goroutine, recovers from
// reporter panics, and only logs and counts failures. A nil Reporter turns
// the dispatcher into a no-op, which is how an absent sink is expressed.
//
// Reporters:
//
//   - GA4Reporter sends Measurement Protocol events to Google Analytics 4.
//   - NATSReporter publishes a JSON envelope on devotrack.events.{module}.
//   - Fanout delivers to several reporters and joins their errors.
package sink
