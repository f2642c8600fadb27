// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/devotrack/internal/backend"
	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/models"
	"github.com/tomtom215/devotrack/internal/testinfra"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.URL = backendURL
	cfg.Identity.HintStore = "memory"
	cfg.Logging.Level = "error"
	return cfg
}

func runCLI(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func() (*config.Config, error) {
		c := *cfg
		return &c, nil
	}, &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v), "output: %s", raw)
	return v
}

func TestTrackAndStats(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	cfg := testConfig(t, srv.URL())

	out, err := runCLI(t, cfg, "--user", "u-1", "--city", "Madurai", "track", "wallpaper", "w-1", "like", "--meta", "source=feed")
	require.NoError(t, err)
	result := decode[models.TrackingResult](t, out)
	assert.True(t, result.Tracked)
	assert.Equal(t, int64(1), result.UniqueCount)

	captures := srv.Captures()
	require.NotEmpty(t, captures)
	body := string(captures[len(captures)-1].Body)
	assert.Contains(t, body, `"source":"feed"`)
	assert.Contains(t, body, `"city":"Madurai"`)

	out, err = runCLI(t, cfg, "--user", "u-1", "track", "wallpaper", "w-1", "like")
	require.NoError(t, err)
	assert.True(t, decode[models.TrackingResult](t, out).AlreadyTracked)

	out, err = runCLI(t, cfg, "stats", "wallpaper", "w-1")
	require.NoError(t, err)
	assert.Equal(t, models.AggregateStats{models.EventLike: 1}, decode[models.AggregateStats](t, out))
}

func TestTrackWithToken(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	cfg := testConfig(t, srv.URL())
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u-token",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-signing-secret-0123456789ab"))
	require.NoError(t, err)

	out, err := runCLI(t, cfg, "--token", token, "track", "photo", "p-1", "download")
	require.NoError(t, err)
	assert.True(t, decode[models.TrackingResult](t, out).Tracked)

	captures := srv.Captures()
	require.NotEmpty(t, captures)
	last := captures[len(captures)-1]
	assert.Equal(t, "Bearer "+token, last.Headers.Get("Authorization"))
	assert.Contains(t, string(last.Body), `"user_id":"u-token"`)

	_, err = runCLI(t, cfg, "--token", "garbage", "track", "photo", "p-1", "download")
	require.Error(t, err)
}

func TestTrackWithoutUserSoftFails(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)

	out, err := runCLI(t, testConfig(t, srv.URL()), "track", "song", "s-1", "play")
	require.NoError(t, err, "tracking failures never fail the command")
	assert.Equal(t, models.SoftFail(), decode[models.TrackingResult](t, out))
	assert.Zero(t, srv.CallCount("/api/analytics/track"))
}

func TestUntrackAndCheck(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	srv.Seed("sparkle", "sp-1", "like", "user:u-1", "user:u-2")
	cfg := testConfig(t, srv.URL())

	out, err := runCLI(t, cfg, "--user", "u-1", "check", "sparkle", "sp-1", "like")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"tracked": true}, decode[map[string]bool](t, out))

	out, err = runCLI(t, cfg, "--user", "u-1", "untrack", "sparkle", "sp-1", "like")
	require.NoError(t, err)
	result := decode[models.TrackingResult](t, out)
	assert.True(t, result.Success)
	assert.Equal(t, int64(1), result.UniqueCount)

	out, err = runCLI(t, cfg, "--user", "u-1", "check", "sparkle", "sp-1", "like")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"tracked": false}, decode[map[string]bool](t, out))
}

func TestToggle(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	cfg := testConfig(t, srv.URL())

	out, err := runCLI(t, cfg, "--user", "u-1", "toggle", "video", "v-1", "like")
	require.NoError(t, err)
	first := decode[toggleOutput](t, out)
	assert.Equal(t, "track", first.Action)
	assert.True(t, first.Result.Tracked)
	assert.Equal(t, int64(1), first.Stats.Get(models.EventLike))

	out, err = runCLI(t, cfg, "--user", "u-1", "toggle", "video", "v-1", "like")
	require.NoError(t, err)
	second := decode[toggleOutput](t, out)
	assert.Equal(t, "untrack", second.Action)
	assert.True(t, second.Result.Success)
	assert.Equal(t, int64(0), second.Stats.Get(models.EventLike))
	assert.Equal(t, int64(0), srv.Count("video", "v-1", "like"))
}

func TestStatsFailure(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	srv.FailNext(1, http.StatusInternalServerError)

	_, err := runCLI(t, testConfig(t, srv.URL()), "stats", "photo", "p-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch stats")
}

func TestConsentPersistsAndGatesTracking(t *testing.T) {
	srv := testinfra.StartFakeBackend(t)
	cfg := testConfig(t, srv.URL())
	cfg.Identity.HintStore = "badger"
	cfg.Identity.HintStorePath = t.TempDir()

	out, err := runCLI(t, cfg, "consent")
	require.NoError(t, err)
	assert.Equal(t, consentOutput{Analytics: true, Stored: false}, decode[consentOutput](t, out))

	out, err = runCLI(t, cfg, "consent", "off")
	require.NoError(t, err)
	assert.Equal(t, consentOutput{Analytics: false, Stored: true}, decode[consentOutput](t, out))

	out, err = runCLI(t, cfg, "--user", "u-1", "track", "banner", "b-1", "click")
	require.NoError(t, err)
	assert.Equal(t, models.SoftFail(), decode[models.TrackingResult](t, out))
	assert.Zero(t, srv.CallCount("/api/analytics/track"))

	// Stats stay readable without consent.
	_, err = runCLI(t, cfg, "stats", "banner", "b-1")
	require.NoError(t, err)

	out, err = runCLI(t, cfg, "consent", "on")
	require.NoError(t, err)
	assert.True(t, decode[consentOutput](t, out).Analytics)

	out, err = runCLI(t, cfg, "--user", "u-1", "track", "banner", "b-1", "click")
	require.NoError(t, err)
	assert.True(t, decode[models.TrackingResult](t, out).Tracked)
}

func TestArgumentErrors(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown module", []string{"track", "hymn", "h-1", "view"}, "unknown module"},
		{"unknown event", []string{"track", "song", "s-1", "hum"}, "unknown event type"},
		{"missing args", []string{"stats", "song"}, "accepts 2 arg(s)"},
		{"bad consent action", []string{"consent", "maybe"}, "invalid argument"},
		{"bad log level", []string{"--log-level", "loud", "stats", "song", "s-1"}, "invalid --log-level"},
		{"bad duplicate mode", []string{"mock-server", "--duplicates", "sometimes"}, "--duplicates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, cfg, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMockServer(t *testing.T) {
	addrCh := make(chan net.Addr, 1)
	readyHook = func(a net.Addr) { addrCh <- a }
	t.Cleanup(func() { readyHook = func(net.Addr) {} })

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Server.Timeout = 2 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCmd(func() (*config.Config, error) { return cfg, nil }, &out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"mock-server", "--addr", "127.0.0.1:0", "--duplicates", "conflict"})

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-done:
		t.Fatalf("mock-server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("mock-server did not start")
	}
	base := "http://" + addr.String()

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	client := backend.NewClient(&config.BackendConfig{URL: base, Timeout: 2 * time.Second})
	req := &models.TrackRequest{ModuleName: "song", ItemID: "s-1", EventType: "play", UserID: "u-1"}
	tr, err := client.Track(ctx, req)
	require.NoError(t, err)
	assert.True(t, tr.Result().Tracked)

	_, err = client.Track(ctx, req)
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	metricsBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(metricsBody), "devotrack_mock_backend_requests_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("mock-server did not stop")
	}
	assert.Contains(t, out.String(), "mock backend listening on http://")
}
