// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package config provides layered configuration for Devotrack.

# Configuration Sources

LoadWithKoanf applies three layers, later layers winning:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: $CONFIG_PATH, then config.yaml, config.yml,
    /etc/devotrack/config.yaml
 3. Environment variables from an explicit mapping table; unmapped
    variables are ignored

The result is validated before it is returned.

# Environment Variables

Backend:
  - BACKEND_URL: tracking backend base URL (default: http://127.0.0.1:8787)
  - BACKEND_ANON_KEY: bearer key sent with every request
  - BACKEND_TIMEOUT: per-call timeout (default: 10s)

Tracker:
  - TRACKER_ALLOW_ANONYMOUS: track without a session user id (default: false)
  - TRACKER_COOLDOWN: hook toggle cool-down window (default: 300ms)
  - DUPLICATE_SIGNATURES: comma-separated duplicate error allowlist
  - APP_VERSION, APP_PLATFORM, APP_USER_AGENT: enrichment inputs

Identity:
  - HINT_STORE: badger or memory (default: badger)
  - HINT_STORE_PATH: badger directory (default: ./data/hints)

Sinks:
  - GA4_ENABLED, GA4_MEASUREMENT_ID, GA4_API_SECRET, GA4_ENDPOINT,
    GA4_RATE_LIMIT, GA4_BURST
  - NATS_SINK_ENABLED, NATS_URL, NATS_SUBJECT_PREFIX

Circuit breaker:
  - CIRCUIT_BREAKER_ENABLED, CIRCUIT_BREAKER_MAX_REQUESTS,
    CIRCUIT_BREAKER_INTERVAL, CIRCUIT_BREAKER_TIMEOUT,
    CIRCUIT_BREAKER_MIN_REQUESTS, CIRCUIT_BREAKER_FAILURE_RATIO

Mock server and logging:
  - HTTP_HOST, HTTP_PORT
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
*/
package config
