// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package enrich builds the metadata envelope attached to every event.
//
// Device descriptors (platform, browser, os, device_model, device_info) are
// derived once from the runtime's user agent with mssola/useragent. Platform
// is one of iOS, Android or Web; an explicit runtime platform hint wins over
// inference. Descriptors that cannot be derived are omitted rather than
// defaulted, and parsing never panics.
//
// Enrich merges enrichment fields first and caller metadata second, so the
// caller wins on every key collision. The package makes no network calls.
package enrich
