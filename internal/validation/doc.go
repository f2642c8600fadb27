// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package validation wraps go-playground/validator v10 with a singleton
// instance and the tracking-specific tags:
//
//   - module: value is one of models.AllModules()
//   - event_type: value is a known models.EventType
//
// Example:
//
//	ev := models.Event{Module: "wallpaper", ItemID: "w-1", EventType: "view"}
//	if err := validation.ValidateStruct(&ev); err != nil {
//	    log.Warn().Str("reason", err.Error()).Msg("Invalid event")
//	}
package validation
