// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package main is the devotrack command line tool.
//
// devotrack drives the tracking core against a configured backend. It is
// used to exercise a deployment by hand, to seed engagement for a demo
// item, and to run a local mock backend for development:
//
//	devotrack mock-server &
//	devotrack --user u-1 track wallpaper w-42 like
//	devotrack --user u-1 toggle wallpaper w-42 like
//	devotrack stats wallpaper w-42
//	devotrack consent off
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (BACKEND_URL, HINT_STORE, GA4_ENABLED, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Exit Status
//
// Tracking never fails loudly: track, untrack and toggle print the result
// and exit 0 even when the backend is unreachable. stats exits non-zero when
// the aggregate counts cannot be fetched.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/devotrack/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(config.LoadWithKoanf, os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
