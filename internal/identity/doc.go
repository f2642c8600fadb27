// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package identity resolves the acting identity for tracked events.
//
// The tracker depends only on the narrow Provider interface. Resolution order:
//
//  1. the authenticated session user id (the dedup identity)
//  2. a locally persisted city hint, used only to enrich metadata
//  3. absent
//
// Session is the Provider driven by the app's auth layer. It persists the
// last known city to a HintStore so the hint survives restarts and sign-out.
// HintStore implementations are BadgerHintStore (durable, or in-memory for
// tests) and MemoryHintStore.
//
// Resolution never fails loudly: a HintStore read error is logged at debug
// level and the hint is treated as absent.
package identity
