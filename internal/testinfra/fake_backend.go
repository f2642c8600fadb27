// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package testinfra

import (
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/middleware"
	"github.com/tomtom215/devotrack/internal/models"
)

// DuplicateMode selects how a repeat track is reported.
type DuplicateMode int

const (
	// DuplicateAsAlreadyTracked answers 200 with tracked=false, already_tracked=true.
	DuplicateAsAlreadyTracked DuplicateMode = iota
	// DuplicateAsError answers 500 with a unique-violation message.
	DuplicateAsError
	// DuplicateAsConflict answers 409.
	DuplicateAsConflict
)

// DuplicateErrorMessage is the body text used by DuplicateAsError.
const DuplicateErrorMessage = `duplicate key value violates unique constraint "analytics_events_unique_key"`

const maxRequestBody = 64 * 1024

// Capture is one recorded request.
type Capture struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

type recordKey struct {
	module, item, event string
}

type injectedFailure struct {
	remaining int
	status    int
	message   string
}

// FakeBackend is an in-memory tracking service. Safe for concurrent use.
type FakeBackend struct {
	mu       sync.Mutex
	records  map[recordKey]map[string]struct{}
	captures []Capture
	failure  injectedFailure
	dupMode  DuplicateMode
	latency  time.Duration

	router chi.Router
}

// NewFakeBackend creates an empty backend. Serve it with Handler or StartFakeBackend.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		records: make(map[recordKey]map[string]struct{}),
	}
	fb.router = fb.routes()
	return fb
}

func (fb *FakeBackend) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.AccessLog)
	r.Use(fb.capture)

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(fb.inject)
		r.Post("/track", fb.handleTrack)
		r.Post("/untrack", fb.handleUntrack)
		r.Get("/stats/{module}/{itemID}", fb.handleStats)
		r.Get("/check/{module}/{itemID}/{eventType}", fb.handleCheck)
	})
	return r
}

// Handler returns the HTTP handler serving the analytics endpoints.
func (fb *FakeBackend) Handler() http.Handler {
	return fb.router
}

// Mount attaches the analytics endpoints to an existing router.
func (fb *FakeBackend) Mount(r chi.Router) {
	r.Mount("/", fb.router)
}

// FailNext makes the next n analytics requests fail with status.
func (fb *FakeBackend) FailNext(n, status int) {
	fb.FailNextWithMessage(n, status, http.StatusText(status))
}

// FailNextWithMessage is FailNext with a custom error message in the body.
func (fb *FakeBackend) FailNextWithMessage(n, status int, message string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failure = injectedFailure{remaining: n, status: status, message: message}
}

// SetDuplicateMode selects how repeat tracks are answered.
func (fb *FakeBackend) SetDuplicateMode(m DuplicateMode) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.dupMode = m
}

// SetLatency delays every analytics response by d, or until the client gives up.
func (fb *FakeBackend) SetLatency(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.latency = d
}

// Seed inserts records directly, bypassing the HTTP layer.
func (fb *FakeBackend) Seed(module, itemID, eventType string, identities ...string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, id := range identities {
		fb.addLocked(recordKey{module, itemID, eventType}, id)
	}
}

// Count returns the unique count for a (module, item, event type).
func (fb *FakeBackend) Count(module, itemID, eventType string) int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return int64(len(fb.records[recordKey{module, itemID, eventType}]))
}

// Captures returns a copy of all captured requests.
func (fb *FakeBackend) Captures() []Capture {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]Capture, len(fb.captures))
	copy(out, fb.captures)
	return out
}

// CallCount returns how many captured requests had a path starting with prefix.
func (fb *FakeBackend) CallCount(prefix string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, c := range fb.captures {
		if strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// Reset clears records, captures and injected behaviour.
func (fb *FakeBackend) Reset() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.records = make(map[recordKey]map[string]struct{})
	fb.captures = nil
	fb.failure = injectedFailure{}
	fb.dupMode = DuplicateAsAlreadyTracked
	fb.latency = 0
}

func (fb *FakeBackend) capture(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
			_ = r.Body.Close()
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}

		fb.mu.Lock()
		fb.captures = append(fb.captures, Capture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		fb.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		latency := fb.latency
		var fail *injectedFailure
		if fb.failure.remaining > 0 {
			fb.failure.remaining--
			f := fb.failure
			fail = &f
		}
		fb.mu.Unlock()

		if latency > 0 {
			timer := time.NewTimer(latency)
			select {
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
		}

		if fail != nil {
			writeError(w, fail.status, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (fb *FakeBackend) handleTrack(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ModuleName == "" || req.ItemID == "" || req.EventType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: module_name, item_id, event_type")
		return
	}

	key := recordKey{req.ModuleName, req.ItemID, req.EventType}
	identity := requestIdentity(r, req.UserID)

	fb.mu.Lock()
	added := fb.addLocked(key, identity)
	count := int64(len(fb.records[key]))
	mode := fb.dupMode
	fb.mu.Unlock()

	logging.Ctx(r.Context()).Debug().
		Str("key", req.ModuleName+":"+req.ItemID+":"+req.EventType).
		Str("identity", logging.MaskUserID(identity)).
		Bool("tracked", added).
		Msg("fake backend track")

	if !added {
		switch mode {
		case DuplicateAsError:
			writeError(w, http.StatusInternalServerError, DuplicateErrorMessage)
			return
		case DuplicateAsConflict:
			writeError(w, http.StatusConflict, "event already exists")
			return
		}
	}

	writeJSON(w, http.StatusOK, models.TrackResponse{
		Success:        true,
		Tracked:        added,
		AlreadyTracked: !added,
		UniqueCount:    count,
	})
}

func (fb *FakeBackend) handleUntrack(w http.ResponseWriter, r *http.Request) {
	var req models.UntrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.ModuleName == "" || req.ItemID == "" || req.EventType == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: module_name, item_id, event_type")
		return
	}

	key := recordKey{req.ModuleName, req.ItemID, req.EventType}
	identity := requestIdentity(r, req.UserID)

	fb.mu.Lock()
	_, removed := fb.records[key][identity]
	if removed {
		delete(fb.records[key], identity)
	}
	count := int64(len(fb.records[key]))
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UntrackResponse{
		Success:     true,
		Removed:     removed,
		UniqueCount: count,
	})
}

func (fb *FakeBackend) handleStats(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	itemID := chi.URLParam(r, "itemID")

	stats := make(map[string]int64)
	fb.mu.Lock()
	for key, ids := range fb.records {
		if key.module == module && key.item == itemID {
			stats[key.event] = int64(len(ids))
		}
	}
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, models.StatsResponse{
		Success: true,
		Module:  module,
		ItemID:  itemID,
		Stats:   stats,
	})
}

func (fb *FakeBackend) handleCheck(w http.ResponseWriter, r *http.Request) {
	key := recordKey{chi.URLParam(r, "module"), chi.URLParam(r, "itemID"), chi.URLParam(r, "eventType")}
	identity := requestIdentity(r, r.URL.Query().Get("user_id"))

	fb.mu.Lock()
	_, tracked := fb.records[key][identity]
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, models.CheckResponse{Success: true, Tracked: tracked})
}

// addLocked records identity under key and reports whether it was new.
func (fb *FakeBackend) addLocked(key recordKey, identity string) bool {
	ids, ok := fb.records[key]
	if !ok {
		ids = make(map[string]struct{})
		fb.records[key] = ids
	}
	if _, exists := ids[identity]; exists {
		return false
	}
	ids[identity] = struct{}{}
	return true
}

// Keys lists every recorded (module:item:event) key, sorted.
func (fb *FakeBackend) Keys() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]string, 0, len(fb.records))
	for k, ids := range fb.records {
		if len(ids) > 0 {
			out = append(out, k.module+":"+k.item+":"+k.event)
		}
	}
	sort.Strings(out)
	return out
}

// requestIdentity prefers the user id, then proxy headers, then the peer address.
func requestIdentity(r *http.Request, userID string) string {
	if userID != "" {
		return "user:" + userID
	}
	for _, h := range []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-IP"} {
		if v := r.Header.Get(h); v != "" {
			return "ip:" + strings.TrimSpace(strings.Split(v, ",")[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
