// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

import "strings"

// Module is a content domain used as a namespace alongside item_id.
type Module string

const (
	ModuleWallpaper Module = "wallpaper"
	ModuleSong      Module = "song"
	ModuleVideo     Module = "video"
	ModuleSparkle   Module = "sparkle"
	ModulePhoto     Module = "photo"
	ModuleBanner    Module = "banner"
	ModuleAskGugan  Module = "ask_gugan"

	// ModuleAuth is the auth-flow pseudo-module. Funnel steps are tracked
	// before a session exists, so it never requires an identity.
	ModuleAuth Module = "auth"

	// ModuleApp carries app lifecycle events (open, close, tab switch).
	ModuleApp Module = "app"
)

var allModules = []Module{
	ModuleWallpaper,
	ModuleSong,
	ModuleVideo,
	ModuleSparkle,
	ModulePhoto,
	ModuleBanner,
	ModuleAskGugan,
	ModuleAuth,
	ModuleApp,
}

// AllModules returns every known module in declaration order.
func AllModules() []Module {
	out := make([]Module, len(allModules))
	copy(out, allModules)
	return out
}

// Valid reports whether m is one of the enumerated modules.
func (m Module) Valid() bool {
	for _, known := range allModules {
		if m == known {
			return true
		}
	}
	return false
}

func (m Module) String() string {
	return string(m)
}

// ParseModule normalizes s and returns the matching module.
func ParseModule(s string) (Module, bool) {
	m := Module(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}
