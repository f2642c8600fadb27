// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/devotrack/internal/logging"
)

// maxBackendTimeout bounds BACKEND_TIMEOUT so a stuck call cannot hold a UI
// action for longer than a minute.
const maxBackendTimeout = time.Minute

// Validate checks that the configuration is complete and consistent.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateSinks(); err != nil {
		return err
	}
	if err := c.validateCircuitBreaker(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if err := validateHTTPURL(c.Backend.URL, "BACKEND_URL"); err != nil {
		return err
	}
	if c.Backend.Timeout <= 0 || c.Backend.Timeout > maxBackendTimeout {
		return fmt.Errorf("BACKEND_TIMEOUT must be between 1ns and %v, got %v", maxBackendTimeout, c.Backend.Timeout)
	}
	return nil
}

func (c *Config) validateTracker() error {
	if c.Tracker.CooldownWindow < 0 {
		return fmt.Errorf("TRACKER_COOLDOWN must not be negative, got %v", c.Tracker.CooldownWindow)
	}
	if len(c.Tracker.DuplicateSignatures) == 0 {
		return fmt.Errorf("DUPLICATE_SIGNATURES must list at least one signature")
	}
	for _, sig := range c.Tracker.DuplicateSignatures {
		if strings.TrimSpace(sig) == "" {
			return fmt.Errorf("DUPLICATE_SIGNATURES must not contain empty entries")
		}
	}
	switch strings.ToLower(c.Tracker.Platform) {
	case "", "ios", "android", "web":
	default:
		return fmt.Errorf("APP_PLATFORM must be ios, android or web, got %q", c.Tracker.Platform)
	}
	return nil
}

func (c *Config) validateIdentity() error {
	switch c.Identity.HintStore {
	case "memory":
		return nil
	case "badger":
		if c.Identity.HintStorePath == "" {
			return fmt.Errorf("HINT_STORE_PATH is required when HINT_STORE=badger")
		}
		return nil
	default:
		return fmt.Errorf("HINT_STORE must be badger or memory, got %q", c.Identity.HintStore)
	}
}

func (c *Config) validateSinks() error {
	ga := c.Sinks.GA4
	if ga.Enabled {
		if ga.MeasurementID == "" || ga.APISecret == "" {
			return fmt.Errorf("GA4_MEASUREMENT_ID and GA4_API_SECRET are required when GA4_ENABLED=true")
		}
		if err := validateEndpointURL(ga.Endpoint, "GA4_ENDPOINT"); err != nil {
			return err
		}
		if ga.RateLimit <= 0 || ga.Burst <= 0 {
			return fmt.Errorf("GA4_RATE_LIMIT and GA4_BURST must be positive")
		}
	}

	if n := c.Sinks.NATS; n.Enabled {
		if !strings.HasPrefix(n.URL, "nats://") && !strings.HasPrefix(n.URL, "tls://") {
			return fmt.Errorf("NATS_URL must use nats:// or tls://, got %q", n.URL)
		}
		if n.SubjectPrefix == "" {
			return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS_SINK_ENABLED=true")
		}
	}
	return nil
}

func (c *Config) validateCircuitBreaker() error {
	cb := c.CircuitBreaker
	if !cb.Enabled {
		return nil
	}
	if cb.FailureRatio <= 0 || cb.FailureRatio > 1 {
		return fmt.Errorf("CIRCUIT_BREAKER_FAILURE_RATIO must be in (0, 1], got %v", cb.FailureRatio)
	}
	if cb.Timeout <= 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
