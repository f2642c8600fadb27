// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package testinfra provides an in-memory tracking backend for tests and for
// the mock-server CLI command.
//
// FakeBackend implements the four analytics endpoints with the same
// deduplication contract as the managed service: one record per
// (module, item, event type, identity), where identity is the request's
// user_id or, failing that, the client's network address. It captures every
// request and can inject failures:
//
//	fb := testinfra.StartFakeBackend(t)
//	fb.FailNext(2, http.StatusServiceUnavailable)
//	fb.SetDuplicateMode(testinfra.DuplicateAsError)
//
//	client := backend.NewClient(&config.BackendConfig{URL: fb.URL()})
//
// The DuplicateMode knob reproduces the three ways deployed backends have
// reported a repeat track: a 200 with already_tracked, a 500 carrying a
// unique-violation message, and a 409.
package testinfra
