// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package hook

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/devotrack/internal/cache"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/metrics"
	"github.com/tomtom215/devotrack/internal/models"
	"github.com/tomtom215/devotrack/internal/tracker"
)

// refreshTimeout bounds a refetch triggered by an identity change.
const refreshTimeout = 15 * time.Second

// Tracker is the subset of *tracker.Tracker a Handle uses.
type Tracker interface {
	Record(ctx context.Context, ev models.Event) (models.TrackingResult, error)
	Revoke(ctx context.Context, ev models.Event) (models.TrackingResult, error)
	CheckTracked(ctx context.Context, module models.Module, itemID string, eventType models.EventType) bool
	FetchStats(ctx context.Context, module models.Module, itemID string) (models.AggregateStats, error)
}

var _ Tracker = (*tracker.Tracker)(nil)

// State is a point-in-time copy of a handle.
type State struct {
	Module  models.Module
	ItemID  string
	Stats   models.AggregateStats
	Loading bool
	Err     error
}

// Handle is the per-(module, item) tracking state. Safe for concurrent use.
type Handle struct {
	tracker Tracker
	module  models.Module
	watcher identity.Watcher
	logger  zerolog.Logger

	cooldown *cache.LRU[models.TrackingResult]

	mu           sync.Mutex
	itemID       string
	stats        models.AggregateStats
	loading      int
	err          error
	seq          uint64
	fetchApplied uint64
	writeApplied uint64
	listeners    []func(State)
	unsubscribe  func()
	closed       bool
	refreshes    sync.WaitGroup
}

// Option configures a Handle.
type Option func(*Handle)

// WithCooldown answers a repeat of the same action on the same event type
// within window from the previous result, without a network call.
func WithCooldown(window time.Duration) Option {
	return func(h *Handle) {
		if window > 0 {
			h.cooldown = cache.NewLRU[models.TrackingResult](64, window)
		}
	}
}

// WithWatcher refetches stats whenever the signed-in user changes.
func WithWatcher(w identity.Watcher) Option {
	return func(h *Handle) { h.watcher = w }
}

// New creates a handle. Call Start to load the initial stats.
func New(t Tracker, module models.Module, itemID string, opts ...Option) *Handle {
	h := &Handle{
		tracker: t,
		module:  module,
		itemID:  itemID,
		stats:   models.AggregateStats{},
		logger:  logging.WithComponent("hook"),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.watcher != nil {
		h.unsubscribe = h.watcher.Subscribe(h.identityChanged)
	}
	return h
}

// Start performs the initial stats fetch.
func (h *Handle) Start(ctx context.Context) {
	_ = h.FetchStats(ctx)
}

// Close detaches from the identity watcher and waits for pending refetches.
func (h *Handle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.listeners = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	h.refreshes.Wait()
}

// OnChange registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that changed the state and must not block.
func (h *Handle) OnChange(fn func(State)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (h *Handle) Snapshot() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// Stats returns a copy of the current counts.
func (h *Handle) Stats() models.AggregateStats {
	return h.Snapshot().Stats
}

// Loading reports whether a stats fetch is in flight.
func (h *Handle) Loading() bool {
	return h.Snapshot().Loading
}

// Err returns the last network error, or nil.
func (h *Handle) Err() error {
	return h.Snapshot().Err
}

// ItemID returns the bound item.
func (h *Handle) ItemID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.itemID
}

// SetItem rebinds the handle. Changing the item clears the counts and
// refetches; setting the same item does nothing.
func (h *Handle) SetItem(ctx context.Context, itemID string) {
	h.mu.Lock()
	if itemID == h.itemID {
		h.mu.Unlock()
		return
	}
	h.itemID = itemID
	h.stats = models.AggregateStats{}
	h.err = nil
	h.seq++
	h.fetchApplied = h.seq
	h.writeApplied = h.seq
	if h.cooldown != nil {
		h.cooldown.Clear()
	}
	h.mu.Unlock()
	h.notify()

	if itemID != "" {
		_ = h.FetchStats(ctx)
	}
}

// TrackEvent records eventType for the bound item and folds the result
// into the local counts.
func (h *Handle) TrackEvent(ctx context.Context, eventType models.EventType, metadata map[string]any) models.TrackingResult {
	return h.mutate(ctx, models.OpTrack, eventType, metadata)
}

// UntrackEvent revokes eventType for the bound item.
func (h *Handle) UntrackEvent(ctx context.Context, eventType models.EventType) models.TrackingResult {
	return h.mutate(ctx, models.OpUntrack, eventType, nil)
}

func (h *Handle) mutate(ctx context.Context, op models.Operation, eventType models.EventType, metadata map[string]any) models.TrackingResult {
	itemID, seq := h.begin()
	if itemID == "" {
		h.logger.Warn().Str("module", string(h.module)).Str("op", string(op)).Msg("no item id bound, event ignored")
		return models.SoftFail()
	}

	key := cooldownKey(itemID, eventType, op)
	if h.cooldown != nil {
		if prev, ok := h.cooldown.Get(key); ok {
			metrics.HookCooldownHits.Inc()
			return prev
		}
	}

	ev := models.Event{Module: h.module, ItemID: itemID, EventType: eventType, Metadata: metadata}
	var (
		result models.TrackingResult
		err    error
	)
	if op == models.OpTrack {
		result, err = h.tracker.Record(ctx, ev)
	} else {
		result, err = h.tracker.Revoke(ctx, ev)
	}

	if h.cooldown != nil {
		h.cooldown.Remove(cooldownKey(itemID, eventType, opposite(op)))
		h.cooldown.Add(key, result)
	}

	h.mu.Lock()
	changed := false
	if itemID == h.itemID && seq > h.fetchApplied {
		next := tracker.ApplyResult(h.stats, op, eventType, result)
		if err != nil && !skipped(err) {
			h.err = err
			changed = true
		}
		if !sameMap(next, h.stats) {
			h.stats = next
			h.writeApplied = seq
			changed = true
		}
	}
	h.mu.Unlock()
	if changed {
		h.notify()
	}
	return result
}

// CheckTracked asks whether the current identity holds eventType on the item.
func (h *Handle) CheckTracked(ctx context.Context, eventType models.EventType) bool {
	itemID := h.ItemID()
	if itemID == "" {
		return false
	}
	return h.tracker.CheckTracked(ctx, h.module, itemID, eventType)
}

// FetchStats refreshes the counts. On failure the previous counts are kept
// and the error is recorded and returned.
func (h *Handle) FetchStats(ctx context.Context) error {
	h.mu.Lock()
	itemID := h.itemID
	if itemID == "" {
		h.mu.Unlock()
		return nil
	}
	h.seq++
	seq := h.seq
	h.loading++
	h.err = nil
	h.mu.Unlock()
	h.notify()

	stats, err := h.tracker.FetchStats(ctx, h.module, itemID)

	h.mu.Lock()
	h.loading--
	if itemID == h.itemID && seq > h.fetchApplied && seq > h.writeApplied {
		if err != nil {
			h.err = fmt.Errorf("fetch stats: %w", err)
		} else {
			h.stats = stats
			h.fetchApplied = seq
		}
	}
	h.mu.Unlock()
	h.notify()

	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	return nil
}

// identityChanged runs on the watcher's goroutine, so the refetch is detached.
func (h *Handle) identityChanged() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.refreshes.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.refreshes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := h.FetchStats(ctx); err != nil {
			h.logger.Debug().Err(err).Msg("refetch after identity change failed")
		}
	}()
}

func (h *Handle) begin() (string, uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return h.itemID, h.seq
}

func (h *Handle) snapshotLocked() State {
	return State{
		Module:  h.module,
		ItemID:  h.itemID,
		Stats:   h.stats.Clone(),
		Loading: h.loading > 0,
		Err:     h.err,
	}
}

func (h *Handle) notify() {
	h.mu.Lock()
	if len(h.listeners) == 0 {
		h.mu.Unlock()
		return
	}
	state := h.snapshotLocked()
	listeners := append([]func(State)(nil), h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// skipped reports a pre-network refusal, which is not surfaced as an error.
func skipped(err error) bool {
	return errors.Is(err, tracker.ErrNoIdentity) ||
		errors.Is(err, tracker.ErrConsentWithdrawn) ||
		errors.Is(err, tracker.ErrInvalidEvent)
}

func cooldownKey(itemID string, eventType models.EventType, op models.Operation) string {
	return itemID + "|" + string(eventType) + "|" + string(op)
}

func opposite(op models.Operation) models.Operation {
	if op == models.OpTrack {
		return models.OpUntrack
	}
	return models.OpTrack
}

func sameMap(a, b models.AggregateStats) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
