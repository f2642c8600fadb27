// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package consent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/devotrack/internal/identity"
)

func TestGateDefaultsToEnabled(t *testing.T) {
	t.Parallel()

	var nilGate *Gate
	assert.True(t, nilGate.Enabled())
	assert.True(t, NewGate(nil).Enabled())

	g := NewGate(identity.NewMemoryHintStore())
	assert.True(t, g.Enabled())
	assert.False(t, g.HasStored())
}

func TestGateStoredValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"explicit off", `{"analytics":false}`, false},
		{"explicit on", `{"analytics":true}`, true},
		{"missing field", `{}`, true},
		{"malformed", `{analytics:`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hints := identity.NewMemoryHintStore()
			require.NoError(t, hints.Set(identity.KeyAnalyticsConsent, tt.raw))
			assert.Equal(t, tt.want, NewGate(hints).Enabled())
		})
	}
}

func TestGateSet(t *testing.T) {
	t.Parallel()

	g := NewGate(identity.NewMemoryHintStore())
	var seen []bool
	g.OnChange(func(enabled bool) { seen = append(seen, enabled) })

	require.NoError(t, g.Set(false))
	assert.False(t, g.Enabled())
	assert.True(t, g.HasStored())

	require.NoError(t, g.Set(true))
	assert.True(t, g.Enabled())
	assert.Equal(t, []bool{false, true}, seen)

	assert.Error(t, NewGate(nil).Set(false))
}
