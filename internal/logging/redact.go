// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package logging

import "strings"

// MaskSecret masks a key or token, keeping the first and last 4 characters.
// Example: "eyJhbGciOiJIUzI1NiJ9.payload" -> "eyJh...load"
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 12 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// MaskUserID masks a user identifier.
// Example: "user-12345678" -> "user...5678"
func MaskUserID(userID string) string {
	if userID == "" {
		return ""
	}
	if len(userID) <= 8 {
		return "***"
	}
	return userID[:4] + "..." + userID[len(userID)-4:]
}

// TruncateBody shortens backend response bodies before logging them.
func TruncateBody(body string, maxLen int) string {
	body = strings.TrimSpace(body)
	if len(body) <= maxLen {
		return body
	}
	return body[:maxLen] + "..."
}
