// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/devotrack/config.yaml",
	"/etc/devotrack/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultDuplicateSignatures is the duplicate-error allowlist used when none
// is configured. Postgres reports 23505 (unique_violation); Prisma reports P2002.
var DefaultDuplicateSignatures = []string{
	"duplicate key",
	"unique constraint",
	"unique_violation",
	"23505",
	"P2002",
	"already exists",
}

// Default returns the built-in configuration without reading any source.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:     "http://127.0.0.1:8787",
			AnonKey: "",
			Timeout: 10 * time.Second,
		},
		Tracker: TrackerConfig{
			AllowAnonymous:      false,
			CooldownWindow:      300 * time.Millisecond,
			DuplicateSignatures: append([]string(nil), DefaultDuplicateSignatures...),
			AppVersion:          "1.0.0",
		},
		Identity: IdentityConfig{
			HintStore:     "badger",
			HintStorePath: "./data/hints",
		},
		Sinks: SinksConfig{
			GA4: GA4Config{
				Enabled:   false,
				Endpoint:  "https://www.google-analytics.com/mp/collect",
				RateLimit: 10,
				Burst:     20,
				Timeout:   5 * time.Second,
			},
			NATS: NATSSinkConfig{
				Enabled:       false,
				URL:           "nats://127.0.0.1:4222",
				SubjectPrefix: "devotrack.events",
				FlushTimeout:  2 * time.Second,
			},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		Server: ServerConfig{
			Host:    "127.0.0.1",
			Port:    8787,
			Timeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from defaults, an optional YAML file and
// the environment, in that order of increasing precedence, then validates it.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"tracker.duplicate_signatures",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"backend_url":      "backend.url",
	"backend_anon_key": "backend.anon_key",
	"backend_timeout":  "backend.timeout",

	"tracker_allow_anonymous": "tracker.allow_anonymous",
	"tracker_cooldown":        "tracker.cooldown_window",
	"duplicate_signatures":    "tracker.duplicate_signatures",
	"app_version":             "tracker.app_version",
	"app_platform":            "tracker.platform",
	"app_user_agent":          "tracker.user_agent",

	"hint_store":      "identity.hint_store",
	"hint_store_path": "identity.hint_store_path",

	"ga4_enabled":        "sinks.ga4.enabled",
	"ga4_measurement_id": "sinks.ga4.measurement_id",
	"ga4_api_secret":     "sinks.ga4.api_secret",
	"ga4_endpoint":       "sinks.ga4.endpoint",
	"ga4_rate_limit":     "sinks.ga4.rate_limit",
	"ga4_burst":          "sinks.ga4.burst",
	"ga4_timeout":        "sinks.ga4.timeout",

	"nats_sink_enabled":   "sinks.nats.enabled",
	"nats_url":            "sinks.nats.url",
	"nats_subject_prefix": "sinks.nats.subject_prefix",
	"nats_flush_timeout":  "sinks.nats.flush_timeout",

	"circuit_breaker_enabled":       "circuit_breaker.enabled",
	"circuit_breaker_max_requests":  "circuit_breaker.max_requests",
	"circuit_breaker_interval":      "circuit_breaker.interval",
	"circuit_breaker_timeout":       "circuit_breaker.timeout",
	"circuit_breaker_min_requests":  "circuit_breaker.min_requests",
	"circuit_breaker_failure_ratio": "circuit_breaker.failure_ratio",

	"http_host":    "server.host",
	"http_port":    "server.port",
	"http_timeout": "server.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped.
//
//   - BACKEND_URL -> backend.url
//   - GA4_API_SECRET -> sinks.ga4.api_secret
//   - LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
