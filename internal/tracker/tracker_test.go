// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package tracker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/devotrack/internal/backend"
	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/enrich"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/models"
	"github.com/tomtom215/devotrack/internal/testinfra"
)

type recordingMirror struct {
	mu     sync.Mutex
	events []models.Event
}

func (m *recordingMirror) Dispatch(ev models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *recordingMirror) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Event(nil), m.events...)
}

type staticConsent bool

func (c staticConsent) Enabled() bool { return bool(c) }

func newTracker(t *testing.T, id identity.Provider, opts ...Option) (*Tracker, *testinfra.Server) {
	t.Helper()
	srv := testinfra.StartFakeBackend(t)
	client := backend.NewClient(&config.BackendConfig{URL: srv.URL(), AnonKey: "test-anon", Timeout: 5 * time.Second})
	return New(client, id, opts...), srv
}

var signedIn = identity.Static{UserID: "user-1", City: "Chennai"}

// A first view by a known user is recorded with a count of one.
func TestTrack_NewView(t *testing.T) {
	t.Parallel()
	tr, _ := newTracker(t, signedIn)

	got := tr.Track(context.Background(), models.ModuleWallpaper, "w-1", models.EventView, nil)
	assert.Equal(t, models.TrackingResult{Success: true, Tracked: true, AlreadyTracked: false, UniqueCount: 1}, got)
}

// Tracking twice in a row yields one net increase.
func TestTrack_Idempotent(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	ctx := context.Background()

	first := tr.Track(ctx, models.ModuleSong, "s-1", models.EventPlay, nil)
	second := tr.Track(ctx, models.ModuleSong, "s-1", models.EventPlay, nil)

	assert.True(t, first.Tracked)
	assert.False(t, second.Tracked)
	assert.True(t, second.AlreadyTracked)
	assert.Equal(t, int64(1), srv.Count("song", "s-1", "play"))
}

// like, unlike, like restores the count.
func TestTrack_LikeUnlikeLike(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	srv.Seed("sparkle", "sp-1", "like", "user:other-a", "user:other-b")
	ctx := context.Background()

	liked := tr.Track(ctx, models.ModuleSparkle, "sp-1", models.EventLike, nil)
	require.True(t, liked.Tracked)
	n := liked.UniqueCount
	assert.Equal(t, int64(3), n)

	unliked := tr.Untrack(ctx, models.ModuleSparkle, "sp-1", models.EventLike)
	assert.Equal(t, models.TrackingResult{Success: true, UniqueCount: n - 1}, unliked)

	again := tr.Track(ctx, models.ModuleSparkle, "sp-1", models.EventLike, nil)
	assert.True(t, again.Tracked)
	assert.Equal(t, n, again.UniqueCount)

	stats, err := tr.FetchStats(ctx, models.ModuleSparkle, "sp-1")
	require.NoError(t, err)
	assert.Equal(t, n, stats.Get(models.EventLike))
}

// Without a user the call is skipped and nothing reaches the network.
func TestTrack_NoIdentitySoftFails(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, identity.Anonymous{})

	var got models.TrackingResult
	assert.NotPanics(t, func() {
		got = tr.Track(context.Background(), models.ModuleVideo, "v-1", models.EventView, nil)
	})
	assert.Equal(t, models.SoftFail(), got)
	assert.False(t, got.Success)
	assert.False(t, got.Tracked)
	assert.Zero(t, srv.CallCount("/api/analytics"))

	_, err := tr.Record(context.Background(), models.Event{Module: models.ModuleVideo, ItemID: "v-1", EventType: models.EventView})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestTrack_AuthModuleAndAllowAnonymous(t *testing.T) {
	t.Parallel()

	t.Run("auth funnel needs no session", func(t *testing.T) {
		tr, _ := newTracker(t, nil)
		got := tr.Track(context.Background(), models.ModuleAuth, "otp", models.EventView, nil)
		assert.True(t, got.Tracked)
	})

	t.Run("allow anonymous", func(t *testing.T) {
		tr, srv := newTracker(t, nil, WithAllowAnonymous(true))
		got := tr.Track(context.Background(), models.ModuleBanner, "b-1", models.EventClick, nil)
		assert.True(t, got.Tracked)

		caps := srv.Captures()
		require.Len(t, caps, 1)
		assert.NotContains(t, string(caps[0].Body), `"user_id"`)
	})
}

// A duplicate reported as an error is swallowed into already_tracked.
func TestTrack_DuplicateErrorSwallowed(t *testing.T) {
	t.Parallel()

	modes := map[string]testinfra.DuplicateMode{
		"unique violation": testinfra.DuplicateAsError,
		"conflict":         testinfra.DuplicateAsConflict,
	}
	for name, mode := range modes {
		t.Run(name, func(t *testing.T) {
			mirror := &recordingMirror{}
			tr, srv := newTracker(t, signedIn, WithMirror(mirror))
			srv.SetDuplicateMode(mode)
			ctx := context.Background()

			first := tr.Track(ctx, models.ModuleVideo, "v-9", models.EventLike, nil)
			require.True(t, first.Tracked)

			second, err := tr.Record(ctx, models.Event{Module: models.ModuleVideo, ItemID: "v-9", EventType: models.EventLike})
			require.NoError(t, err)
			assert.Equal(t, models.TrackingResult{Success: true, AlreadyTracked: true}, second)
			assert.Len(t, mirror.Events(), 1, "duplicates are not mirrored")
		})
	}
}

func TestTrack_TransientAndFatalFailures(t *testing.T) {
	t.Parallel()

	t.Run("server error", func(t *testing.T) {
		tr, srv := newTracker(t, signedIn)
		srv.FailNext(1, http.StatusServiceUnavailable)

		got, err := tr.Record(context.Background(), models.Event{Module: models.ModulePhoto, ItemID: "p-1", EventType: models.EventView})
		assert.Equal(t, models.SoftFail(), got)
		assert.Equal(t, Transient, tr.Classifier().Classify(err))
	})

	t.Run("bad request", func(t *testing.T) {
		tr, srv := newTracker(t, signedIn)
		srv.FailNextWithMessage(1, http.StatusBadRequest, "Missing required fields")

		got, err := tr.Record(context.Background(), models.Event{Module: models.ModulePhoto, ItemID: "p-1", EventType: models.EventView})
		assert.Equal(t, models.SoftFail(), got)
		assert.Equal(t, Fatal, tr.Classifier().Classify(err))
	})

	t.Run("timeout", func(t *testing.T) {
		tr, srv := newTracker(t, signedIn, WithTimeout(50*time.Millisecond))
		srv.SetLatency(3 * time.Second)

		start := time.Now()
		got, err := tr.Record(context.Background(), models.Event{Module: models.ModulePhoto, ItemID: "p-1", EventType: models.EventView})
		assert.Less(t, time.Since(start), 2*time.Second)
		assert.Equal(t, models.SoftFail(), got)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, Transient, tr.Classifier().Classify(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := testinfra.StartFakeBackend(t)
		url := srv.URL()
		srv.Close()
		tr := New(backend.NewClient(&config.BackendConfig{URL: url}), signedIn)

		got, err := tr.Record(context.Background(), models.Event{Module: models.ModulePhoto, ItemID: "p-1", EventType: models.EventView})
		assert.Equal(t, models.SoftFail(), got)
		assert.Equal(t, Transient, tr.Classifier().Classify(err))
	})
}

func TestTrack_InvalidInputSoftFails(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	ctx := context.Background()

	assert.Equal(t, models.SoftFail(), tr.Track(ctx, models.Module("podcast"), "x", models.EventView, nil))
	assert.Equal(t, models.SoftFail(), tr.Track(ctx, models.ModuleSong, "", models.EventView, nil))
	assert.Equal(t, models.SoftFail(), tr.Track(ctx, models.ModuleSong, "s", models.EventType("hover"), nil))
	assert.Zero(t, srv.CallCount("/api/analytics"))

	_, err := tr.Record(ctx, models.Event{Module: models.ModuleSong, EventType: models.EventView})
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestTrack_ConsentWithdrawn(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn, WithConsent(staticConsent(false)))
	ctx := context.Background()

	assert.Equal(t, models.SoftFail(), tr.Track(ctx, models.ModuleSong, "s-1", models.EventLike, nil))
	assert.Equal(t, models.SoftFail(), tr.Untrack(ctx, models.ModuleSong, "s-1", models.EventLike))
	assert.False(t, tr.CheckTracked(ctx, models.ModuleSong, "s-1", models.EventLike))
	assert.Zero(t, srv.CallCount("/api/analytics"))

	_, err := tr.Record(ctx, models.Event{Module: models.ModuleSong, ItemID: "s-1", EventType: models.EventLike})
	assert.True(t, errors.Is(err, ErrConsentWithdrawn))
}

// With no secondary sink the primary result is returned unaffected.
func TestTrack_SecondarySinkAbsent(t *testing.T) {
	t.Parallel()
	tr, _ := newTracker(t, signedIn)

	got := tr.Track(context.Background(), models.ModuleAskGugan, "conv-1", models.EventConversationStart, map[string]any{"source": "home"})
	assert.Equal(t, models.TrackingResult{Success: true, Tracked: true, UniqueCount: 1}, got)
}

func TestTrack_MirrorsOnlyNewTracks(t *testing.T) {
	t.Parallel()
	mirror := &recordingMirror{}
	tr, _ := newTracker(t, signedIn, WithMirror(mirror))
	ctx := context.Background()

	tr.Track(ctx, models.ModuleWallpaper, "w-2", models.EventDownload, map[string]any{"resolution": "4k"})
	tr.Track(ctx, models.ModuleWallpaper, "w-2", models.EventDownload, nil)
	tr.Untrack(ctx, models.ModuleWallpaper, "w-2", models.EventDownload)

	events := mirror.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "wallpaper_download", events[0].Name())
	assert.Equal(t, "user-1", events[0].UserID)
	assert.Equal(t, "4k", events[0].Metadata["resolution"])
	assert.Equal(t, "Chennai", events[0].Metadata["city"])
}

func TestTrack_SendsEnrichedPayload(t *testing.T) {
	t.Parallel()
	enricher := enrich.New(enrich.Runtime{
		UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		AppVersion: "2.4.0",
		SessionID:  "sess-1",
	}, signedIn)
	tr, srv := newTracker(t, signedIn, WithEnricher(enricher))

	tr.Track(context.Background(), models.ModuleVideo, "v-3", models.EventWatchComplete, map[string]any{"platform": "Android"})

	caps := srv.Captures()
	require.Len(t, caps, 1)
	assert.Equal(t, "Bearer test-anon", caps[0].Headers.Get("Authorization"))

	var body models.TrackRequest
	require.NoError(t, json.Unmarshal(caps[0].Body, &body))
	assert.Equal(t, "user-1", body.UserID)
	assert.Equal(t, "watch_complete", body.EventType)
	assert.Equal(t, "Android", body.Metadata["platform"], "caller metadata wins")
	assert.Equal(t, "sess-1", body.Metadata["session_id"])
	assert.Equal(t, "2.4.0", body.Metadata["app_version"])
	assert.Equal(t, "Chennai", body.Metadata["city"])
	assert.NotEmpty(t, body.Metadata["timestamp"])
}

func TestUntrack_FailureIsNotSwallowed(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	srv.FailNextWithMessage(1, http.StatusInternalServerError, "duplicate key value")

	got := tr.Untrack(context.Background(), models.ModuleSong, "s-1", models.EventLike)
	assert.Equal(t, models.SoftFail(), got)
}

func TestCheckTracked(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	ctx := context.Background()

	assert.False(t, tr.CheckTracked(ctx, models.ModuleVideo, "v-1", models.EventLike))
	tr.Track(ctx, models.ModuleVideo, "v-1", models.EventLike, nil)
	assert.True(t, tr.CheckTracked(ctx, models.ModuleVideo, "v-1", models.EventLike))

	srv.FailNext(1, http.StatusInternalServerError)
	assert.False(t, tr.CheckTracked(ctx, models.ModuleVideo, "v-1", models.EventLike), "errors read as false")

	assert.False(t, tr.CheckTracked(ctx, models.ModuleVideo, "", models.EventLike))

	anon, _ := newTracker(t, nil)
	assert.False(t, anon.CheckTracked(ctx, models.ModuleVideo, "v-1", models.EventLike))
}

func TestFetchStats(t *testing.T) {
	t.Parallel()
	tr, srv := newTracker(t, signedIn)
	srv.Seed("photo", "p-7", "view", "user:a", "user:b", "user:c")
	srv.Seed("photo", "p-7", "like", "user:a")
	ctx := context.Background()

	stats, err := tr.GetStats(ctx, models.ModulePhoto, "p-7")
	require.NoError(t, err)
	assert.Equal(t, models.AggregateStats{models.EventView: 3, models.EventLike: 1}, stats)

	srv.FailNext(1, http.StatusBadGateway)
	_, err = tr.FetchStats(ctx, models.ModulePhoto, "p-7")
	var apiErr *backend.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	_, err = tr.FetchStats(ctx, models.Module("nope"), "p-7")
	assert.ErrorIs(t, err, ErrInvalidEvent)
}

func TestTracker_ThroughCircuitBreaker(t *testing.T) {
	t.Parallel()
	srv := testinfra.StartFakeBackend(t)
	srv.SetDuplicateMode(testinfra.DuplicateAsError)

	classifier := NewClassifier(nil)
	api := backend.NewCircuitBreakerClient(
		backend.NewClient(&config.BackendConfig{URL: srv.URL()}),
		config.CircuitBreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, MinRequests: 2, FailureRatio: 0.3},
		backend.WithSuccessFunc(classifier.BreakerHealthy),
	)
	tr := New(api, signedIn, WithClassifier(classifier))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		got := tr.Track(ctx, models.ModuleSong, "s-1", models.EventLike, nil)
		assert.True(t, got.Success, "attempt %d", i)
	}

	srv.FailNext(10, http.StatusServiceUnavailable)
	for i := 0; i < 3; i++ {
		tr.Track(ctx, models.ModuleSong, "s-2", models.EventLike, nil)
	}
	calls := srv.CallCount("/api/analytics/track")

	_, err := tr.Record(ctx, models.Event{Module: models.ModuleSong, ItemID: "s-3", EventType: models.EventLike})
	assert.ErrorIs(t, err, backend.ErrCircuitOpen)
	assert.Equal(t, Transient, classifier.Classify(err))
	assert.Equal(t, calls, srv.CallCount("/api/analytics/track"), "open circuit makes no request")
}
