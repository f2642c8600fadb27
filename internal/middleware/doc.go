// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package middleware provides the HTTP middleware used by the mock tracking
backend.

Key Components:

  - RequestID: UUID-based request tracking, propagated into the logging context
  - PrometheusMetrics: per-route request counts labelled with the chi route pattern
  - AccessLog: one zerolog line per request

All middleware use the func(http.Handler) http.Handler shape so they compose
with chi's router.Use:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
*/
package middleware
