// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package testinfra

import (
	"net/http/httptest"
	"testing"
)

// Server is a FakeBackend listening on a loopback httptest server.
type Server struct {
	*FakeBackend
	srv *httptest.Server
}

// StartFakeBackend starts a FakeBackend and closes it when the test ends.
func StartFakeBackend(tb testing.TB) *Server {
	tb.Helper()
	fb := NewFakeBackend()
	s := &Server{FakeBackend: fb, srv: httptest.NewServer(fb.Handler())}
	tb.Cleanup(s.srv.Close)
	return s
}

// URL returns the server base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the server down early.
func (s *Server) Close() {
	s.srv.Close()
}
