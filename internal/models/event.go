// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

import "fmt"

// Operation distinguishes recording an action from revoking it.
type Operation string

const (
	OpTrack   Operation = "track"
	OpUntrack Operation = "untrack"
)

// Event is the unit of tracking. It is built per user action and sent once.
type Event struct {
	Module    Module         `json:"module_name" validate:"required,module"`
	ItemID    string         `json:"item_id" validate:"required,max=256"`
	EventType EventType      `json:"event_type" validate:"required,event_type"`
	UserID    string         `json:"user_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Via       Operation      `json:"-" validate:"omitempty,oneof=track untrack"`
}

// Name returns the secondary-sink event name, e.g. "wallpaper_like".
func (e Event) Name() string {
	return fmt.Sprintf("%s_%s", e.Module, e.EventType)
}

// Key identifies the (module, item_id, event_type) triple.
func (e Event) Key() string {
	return fmt.Sprintf("%s:%s:%s", e.Module, e.ItemID, e.EventType)
}
