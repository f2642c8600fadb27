// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/logging"
)

// Measurement Protocol limits.
const (
	ga4MaxParams     = 25
	ga4MaxNameLen    = 40
	ga4MaxParamValue = 100
)

// ErrGA4NotConfigured is returned when the measurement id or API secret is missing.
var ErrGA4NotConfigured = errors.New("sink: ga4 measurement_id and api_secret are required")

// GA4Reporter sends events to the Google Analytics 4 Measurement Protocol.
//
// The GA client_id is generated once and persisted in the HintStore so a
// device keeps the same id across restarts.
type GA4Reporter struct {
	endpoint      string
	measurementID string
	apiSecret     string
	client        *http.Client
	limiter       *rate.Limiter
	hints         identity.HintStore

	mu       sync.Mutex
	clientID string
}

// NewGA4Reporter creates a reporter from cfg. hints may be nil, in which case
// the client id lives only as long as the process.
func NewGA4Reporter(cfg config.GA4Config, hints identity.HintStore) (*GA4Reporter, error) {
	if cfg.MeasurementID == "" || cfg.APISecret == "" {
		return nil, ErrGA4NotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &GA4Reporter{
		endpoint:      cfg.Endpoint,
		measurementID: cfg.MeasurementID,
		apiSecret:     cfg.APISecret,
		client:        &http.Client{Timeout: timeout},
		limiter:       rate.NewLimiter(limit, burst),
		hints:         hints,
	}, nil
}

// Name implements the metrics label hook.
func (g *GA4Reporter) Name() string { return NameGA4 }

type ga4Payload struct {
	ClientID string     `json:"client_id"`
	Events   []ga4Event `json:"events"`
}

type ga4Event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Report sends one event. It waits for the rate limiter within ctx.
func (g *GA4Reporter) Report(ctx context.Context, eventName string, params map[string]any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("ga4: rate limited: %w", err)
	}

	body, err := json.Marshal(ga4Payload{
		ClientID: g.ClientID(),
		Events:   []ga4Event{{Name: truncate(eventName, ga4MaxNameLen), Params: ga4Params(params)}},
	})
	if err != nil {
		return fmt.Errorf("ga4: encode event: %w", err)
	}

	q := url.Values{}
	q.Set("measurement_id", g.measurementID)
	q.Set("api_secret", g.apiSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"?"+q.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ga4: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("ga4: request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ga4: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// ClientID returns the persisted GA client id, creating it on first use.
func (g *GA4Reporter) ClientID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.clientID != "" {
		return g.clientID
	}

	if g.hints != nil {
		if id, err := g.hints.Get(identity.KeyGAClientID); err == nil && id != "" {
			g.clientID = id
			return id
		}
	}

	g.clientID = uuid.NewString()
	if g.hints != nil {
		if err := g.hints.Set(identity.KeyGAClientID, g.clientID); err != nil {
			logging.Debug().Err(err).Msg("failed to persist ga client id")
		}
	}
	return g.clientID
}

// ga4Params keeps at most ga4MaxParams parameters, chosen in key order, and
// flattens values to what the Measurement Protocol accepts.
func ga4Params(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > ga4MaxParams {
		keys = keys[:ga4MaxParams]
	}

	out := make(map[string]any, len(keys))
	for _, k := range keys {
		switch v := params[k].(type) {
		case nil:
			continue
		case string:
			out[truncate(k, ga4MaxNameLen)] = truncate(v, ga4MaxParamValue)
		case bool, int, int32, int64, float32, float64, uint, uint32, uint64:
			out[truncate(k, ga4MaxNameLen)] = v
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out[truncate(k, ga4MaxNameLen)] = truncate(string(raw), ga4MaxParamValue)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
