// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/devotrack/internal/backend"
	"github.com/tomtom215/devotrack/internal/enrich"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/metrics"
	"github.com/tomtom215/devotrack/internal/models"
	"github.com/tomtom215/devotrack/internal/validation"
)

// maxLoggedBody caps the backend response body attached to failure logs.
const maxLoggedBody = 256

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// Reasons a call is skipped before reaching the network.
var (
	ErrInvalidEvent     = errors.New("tracker: invalid event")
	ErrConsentWithdrawn = errors.New("tracker: analytics consent withdrawn")
	ErrNoIdentity       = errors.New("tracker: no user identity")
)

// Consent reports whether analytics may be collected. *consent.Gate implements it.
type Consent interface {
	Enabled() bool
}

// Mirror receives every genuinely new track. *sink.Dispatcher implements it.
type Mirror interface {
	Dispatch(event models.Event)
}

// Tracker records engagement events. Safe for concurrent use.
type Tracker struct {
	api            backend.API
	identity       identity.Provider
	enricher       *enrich.Enricher
	consent        Consent
	mirror         Mirror
	classifier     *Classifier
	timeout        time.Duration
	allowAnonymous bool
	logger         zerolog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithEnricher sets the metadata enricher.
func WithEnricher(e *enrich.Enricher) Option {
	return func(t *Tracker) { t.enricher = e }
}

// WithConsent sets the consent gate. Without one, tracking is always allowed.
func WithConsent(c Consent) Option {
	return func(t *Tracker) { t.consent = c }
}

// WithMirror sets the secondary sink dispatcher.
func WithMirror(m Mirror) Option {
	return func(t *Tracker) { t.mirror = m }
}

// WithClassifier replaces the duplicate classifier.
func WithClassifier(c *Classifier) Option {
	return func(t *Tracker) { t.classifier = c }
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithAllowAnonymous tracks without a user id, leaving deduplication to the
// service's network-origin key.
func WithAllowAnonymous(allow bool) Option {
	return func(t *Tracker) { t.allowAnonymous = allow }
}

// New creates a Tracker. id may be nil, which behaves as identity.Anonymous.
func New(api backend.API, id identity.Provider, opts ...Option) *Tracker {
	if id == nil {
		id = identity.Anonymous{}
	}
	t := &Tracker{
		api:        api,
		identity:   id,
		classifier: NewClassifier(nil),
		timeout:    DefaultTimeout,
		logger:     logging.WithComponent("tracker"),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.enricher == nil {
		t.enricher = enrich.New(enrich.Runtime{}, id)
	}
	return t
}

// Classifier returns the classifier in use.
func (t *Tracker) Classifier() *Classifier {
	return t.classifier
}

// Track records one event and never fails: any skip or error yields the
// zero result. See Record for the reason.
func (t *Tracker) Track(ctx context.Context, module models.Module, itemID string, eventType models.EventType, metadata map[string]any) models.TrackingResult {
	result, _ := t.Record(ctx, models.Event{
		Module:    module,
		ItemID:    itemID,
		EventType: eventType,
		Metadata:  metadata,
		Via:       models.OpTrack,
	})
	return result
}

// Record is Track with the reason for a failed or skipped call. A duplicate
// is a success and returns a nil error.
func (t *Tracker) Record(ctx context.Context, ev models.Event) (models.TrackingResult, error) {
	ev.Via = models.OpTrack
	start := time.Now()

	ev, err := t.admit(ctx, ev)
	if err != nil {
		t.record(models.OpTrack, ev, metrics.OutcomeSoftFail, 0)
		return models.SoftFail(), err
	}

	ev.Metadata = t.enricher.Enrich(ev.Metadata)

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.api.Track(callCtx, &models.TrackRequest{
		ModuleName: ev.Module.String(),
		ItemID:     ev.ItemID,
		EventType:  ev.EventType.String(),
		UserID:     ev.UserID,
		Metadata:   ev.Metadata,
	})
	if err != nil {
		kind := t.classifier.Classify(err)
		if kind == Duplicate {
			t.logFor(ctx, ev).Debug().Err(err).Msg("duplicate track treated as already tracked")
			t.record(models.OpTrack, ev, metrics.OutcomeDuplicate, time.Since(start))
			return models.DuplicateResult(), nil
		}
		t.logFailure(ctx, ev, kind, err)
		t.record(models.OpTrack, ev, kind.String(), time.Since(start))
		return models.SoftFail(), err
	}

	result := resp.Result()
	outcome := metrics.OutcomeAlreadyTracked
	if result.Tracked {
		outcome = metrics.OutcomeTracked
		if t.mirror != nil {
			t.mirror.Dispatch(ev)
		}
	}
	t.record(models.OpTrack, ev, outcome, time.Since(start))
	t.logFor(ctx, ev).Debug().
		Bool("tracked", result.Tracked).
		Int64("unique_count", result.UniqueCount).
		Msg("event tracked")
	return result, nil
}

// Untrack revokes one event. A duplicate-looking error is not swallowed.
func (t *Tracker) Untrack(ctx context.Context, module models.Module, itemID string, eventType models.EventType) models.TrackingResult {
	result, _ := t.Revoke(ctx, models.Event{Module: module, ItemID: itemID, EventType: eventType})
	return result
}

// Revoke is Untrack with the reason for a failed or skipped call.
func (t *Tracker) Revoke(ctx context.Context, ev models.Event) (models.TrackingResult, error) {
	ev.Via = models.OpUntrack
	ev.Metadata = nil
	start := time.Now()

	ev, err := t.admit(ctx, ev)
	if err != nil {
		t.record(models.OpUntrack, ev, metrics.OutcomeSoftFail, 0)
		return models.SoftFail(), err
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.api.Untrack(callCtx, &models.UntrackRequest{
		ModuleName: ev.Module.String(),
		ItemID:     ev.ItemID,
		EventType:  ev.EventType.String(),
		UserID:     ev.UserID,
	})
	if err != nil {
		kind := t.classifier.Classify(err)
		t.logFailure(ctx, ev, kind, err)
		t.record(models.OpUntrack, ev, kind.String(), time.Since(start))
		return models.SoftFail(), err
	}

	t.record(models.OpUntrack, ev, metrics.OutcomeUntracked, time.Since(start))
	return models.TrackingResult{Success: resp.Success, UniqueCount: resp.UniqueCount}, nil
}

// CheckTracked reports whether the current identity already holds the event.
// Any skip or failure reads as false.
func (t *Tracker) CheckTracked(ctx context.Context, module models.Module, itemID string, eventType models.EventType) bool {
	ev, err := t.admit(ctx, models.Event{Module: module, ItemID: itemID, EventType: eventType, Via: models.OpTrack})
	if err != nil {
		metrics.RecordCheck(false, err)
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.api.Check(callCtx, ev.Module.String(), ev.ItemID, ev.EventType.String(), ev.UserID)
	if err != nil {
		metrics.RecordCheck(false, err)
		t.logFor(ctx, ev).Debug().Err(err).Msg("check tracked failed")
		return false
	}
	metrics.RecordCheck(resp.Tracked, nil)
	return resp.Tracked
}

// FetchStats reads the aggregate counts for an item. Unlike the write path it
// returns its error so callers can surface a failed refresh.
func (t *Tracker) FetchStats(ctx context.Context, module models.Module, itemID string) (models.AggregateStats, error) {
	if !module.Valid() || itemID == "" {
		err := fmt.Errorf("%w: module %q item %q", ErrInvalidEvent, module, itemID)
		metrics.RecordStatsFetch("invalid", err)
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.api.Stats(callCtx, module.String(), itemID)
	metrics.RecordStatsFetch(module.String(), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).
			Str("component", "tracker").
			Str("module", module.String()).
			Str("item_id", itemID).
			Msg("fetch stats failed")
		return nil, err
	}
	return models.StatsFromWire(resp.Stats), nil
}

// GetStats is FetchStats under the name standalone callers use.
func (t *Tracker) GetStats(ctx context.Context, module models.Module, itemID string) (models.AggregateStats, error) {
	return t.FetchStats(ctx, module, itemID)
}

// admit applies the pre-network checks and fills in the user id.
func (t *Tracker) admit(ctx context.Context, ev models.Event) (models.Event, error) {
	if verr := validation.ValidateStruct(ev); verr != nil {
		t.logFor(ctx, ev).Warn().Strs("fields", verr.Fields()).Msg("invalid tracking event ignored")
		return ev, fmt.Errorf("%w: %s", ErrInvalidEvent, verr.Error())
	}

	if t.consent != nil && !t.consent.Enabled() {
		t.logFor(ctx, ev).Debug().Msg("analytics consent withdrawn, event skipped")
		return ev, ErrConsentWithdrawn
	}

	ev.UserID = t.identity.CurrentUserID()
	if ev.UserID == "" && ev.Module != models.ModuleAuth && !t.allowAnonymous {
		t.logFor(ctx, ev).Debug().Msg("no signed-in user, event skipped")
		return ev, ErrNoIdentity
	}
	return ev, nil
}

func (t *Tracker) logFor(ctx context.Context, ev models.Event) *zerolog.Logger {
	l := t.logger.With().
		Str("module", string(ev.Module)).
		Str("item_id", ev.ItemID).
		Str("event_type", string(ev.EventType)).
		Str("op", string(ev.Via))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		l = l.Str("correlation_id", id)
	}
	logger := l.Logger()
	return &logger
}

func (t *Tracker) logFailure(ctx context.Context, ev models.Event, kind Kind, err error) {
	l := t.logFor(ctx, ev)
	e := l.Error()
	if kind == Transient {
		e = l.Warn()
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		e = e.Int("status", apiErr.StatusCode).Str("body", logging.TruncateBody(apiErr.Body, maxLoggedBody))
	}
	e.Err(err).Str("kind", kind.String()).Msg("tracking call failed")
}

// record keeps label values to the closed enums so bad input cannot grow the series.
func (t *Tracker) record(op models.Operation, ev models.Event, outcome string, d time.Duration) {
	module, eventType := "invalid", "invalid"
	if ev.Module.Valid() {
		module = ev.Module.String()
	}
	if ev.EventType.Valid() {
		eventType = ev.EventType.String()
	}
	metrics.RecordTracking(string(op), module, eventType, outcome, d)
}
