// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package logging provides zerolog-based structured logging for Devotrack.
//
// A single global logger is configured once at startup through Init. Every
// tracking component derives a child logger with WithComponent so log lines
// can be filtered per subsystem (tracker, backend, sink, hook, identity).
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	log := logging.WithComponent("tracker")
//	log.Warn().Str("module", "wallpaper").Msg("Invalid event, skipping")
//
//	// Correlation IDs from context
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Tracking event")
//
// # Log Levels
//
// The tracking core never surfaces errors to its callers, so the level carries
// the outcome taxonomy:
//
//   - debug: soft-fails (no identity, consent withdrawn, duplicate swallowed)
//   - warn: transient backend failures, secondary sink failures
//   - error: fatal backend rejections
//
// # Redaction
//
// MaskSecret and MaskUserID must be applied before anon keys, API secrets or
// user identifiers are written to a log line.
package logging
