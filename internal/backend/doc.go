// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package backend talks to the managed tracking service.

The service exposes four endpoints under {base_url}/api/analytics/:

	POST /track                          record one engagement event
	POST /untrack                        revoke a previously recorded event
	GET  /stats/{module}/{item}          aggregate unique counts per event type
	GET  /check/{module}/{item}/{event}  whether the caller already tracked it

Every request carries the public anon key twice, as a bearer token and as an
apikey header, which is what the managed gateway expects.

Client performs exactly one HTTP round trip per call. It never retries: a
repeated track is deduplicated server-side, but a repeated untrack would not
be, so retry policy belongs to the caller. CircuitBreakerClient wraps Client
with sony/gobreaker and fails fast with ErrCircuitOpen while the service is
unhealthy.

Failures are returned as *APIError whenever the service answered, including
the 200-with-success:false shape the gateway uses for database errors. The
tracker classifies those errors; this package only reports them.
*/
package backend
