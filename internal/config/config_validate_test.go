// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing backend url",
			mutate:  func(c *Config) { c.Backend.URL = "" },
			wantErr: "BACKEND_URL is required",
		},
		{
			name:    "backend url with path",
			mutate:  func(c *Config) { c.Backend.URL = "https://x.example.com/rest/v1" },
			wantErr: "base URL only",
		},
		{
			name:    "backend url bad scheme",
			mutate:  func(c *Config) { c.Backend.URL = "ftp://x.example.com" },
			wantErr: "scheme must be http or https",
		},
		{
			name:    "timeout too long",
			mutate:  func(c *Config) { c.Backend.Timeout = 2 * time.Minute },
			wantErr: "BACKEND_TIMEOUT",
		},
		{
			name:    "negative cooldown",
			mutate:  func(c *Config) { c.Tracker.CooldownWindow = -time.Second },
			wantErr: "TRACKER_COOLDOWN",
		},
		{
			name:    "empty signature list",
			mutate:  func(c *Config) { c.Tracker.DuplicateSignatures = nil },
			wantErr: "DUPLICATE_SIGNATURES",
		},
		{
			name:    "unknown platform",
			mutate:  func(c *Config) { c.Tracker.Platform = "windows" },
			wantErr: "APP_PLATFORM",
		},
		{
			name:    "unknown hint store",
			mutate:  func(c *Config) { c.Identity.HintStore = "redis" },
			wantErr: "HINT_STORE",
		},
		{
			name: "ga4 without credentials",
			mutate: func(c *Config) {
				c.Sinks.GA4.Enabled = true
			},
			wantErr: "GA4_MEASUREMENT_ID",
		},
		{
			name: "nats with http url",
			mutate: func(c *Config) {
				c.Sinks.NATS.Enabled = true
				c.Sinks.NATS.URL = "http://127.0.0.1:4222"
			},
			wantErr: "NATS_URL",
		},
		{
			name:    "failure ratio out of range",
			mutate:  func(c *Config) { c.CircuitBreaker.FailureRatio = 1.5 },
			wantErr: "FAILURE_RATIO",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "HTTP_PORT",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %q, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateGA4Enabled(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Sinks.GA4.Enabled = true
	cfg.Sinks.GA4.MeasurementID = "G-TEST123"
	cfg.Sinks.GA4.APISecret = "secret"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
