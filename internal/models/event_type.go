// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package models

import "strings"

// EventType is the user action recorded against an item.
type EventType string

// Content engagement
const (
	EventView          EventType = "view"
	EventLike          EventType = "like"
	EventUnlike        EventType = "unlike"
	EventDownload      EventType = "download"
	EventShare         EventType = "share"
	EventPlay          EventType = "play"
	EventWatchComplete EventType = "watch_complete"
	EventRead          EventType = "read"
	EventClick         EventType = "click"
	EventFavorite      EventType = "favorite"
	EventUnfavorite    EventType = "unfavorite"
	EventListen        EventType = "listen"
	EventPause         EventType = "pause"
	EventSkip          EventType = "skip"
	EventComplete      EventType = "complete"
	EventImpression    EventType = "impression"
)

// Ask Gugan chat
const (
	EventMessageSent       EventType = "message_sent"
	EventMessageReceived   EventType = "message_received"
	EventConversationStart EventType = "conversation_start"
)

// Auth funnel and app lifecycle
const (
	EventLogin     EventType = "login"
	EventSignup    EventType = "signup"
	EventLogout    EventType = "logout"
	EventAppOpen   EventType = "app_open"
	EventAppClose  EventType = "app_close"
	EventTabSwitch EventType = "tab_switch"
)

var allEventTypes = map[EventType]struct{}{
	EventView: {}, EventLike: {}, EventUnlike: {}, EventDownload: {},
	EventShare: {}, EventPlay: {}, EventWatchComplete: {}, EventRead: {},
	EventClick: {}, EventFavorite: {}, EventUnfavorite: {}, EventListen: {},
	EventPause: {}, EventSkip: {}, EventComplete: {}, EventImpression: {},
	EventMessageSent: {}, EventMessageReceived: {}, EventConversationStart: {},
	EventLogin: {}, EventSignup: {}, EventLogout: {},
	EventAppOpen: {}, EventAppClose: {}, EventTabSwitch: {},
}

// Valid reports whether e is one of the enumerated actions.
func (e EventType) Valid() bool {
	_, ok := allEventTypes[e]
	return ok
}

func (e EventType) String() string {
	return string(e)
}

// ParseEventType normalizes s and returns the matching event type.
func ParseEventType(s string) (EventType, bool) {
	e := EventType(strings.ToLower(strings.TrimSpace(s)))
	return e, e.Valid()
}
