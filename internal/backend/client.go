// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/models"
)

// maxErrorBodySize limits how much of a failed response is read for reporting.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxResponseSize bounds successful response bodies.
const maxResponseSize = 1 << 20 // 1MB

const apiPrefix = "/api/analytics"

// API is the set of tracking service operations the tracker depends on.
// Client and CircuitBreakerClient implement it; tests may substitute their own.
type API interface {
	Track(ctx context.Context, req *models.TrackRequest) (*models.TrackResponse, error)
	Untrack(ctx context.Context, req *models.UntrackRequest) (*models.UntrackResponse, error)
	Stats(ctx context.Context, module, itemID string) (*models.StatsResponse, error)
	Check(ctx context.Context, module, itemID, eventType, userID string) (*models.CheckResponse, error)
}

// Client is the HTTP client for the tracking service. Safe for concurrent use.
type Client struct {
	baseURL   string
	anonKey   string
	userAgent string
	token     func() string
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithUserAgent sets the User-Agent header sent with each request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTokenSource sends the session access token returned by fn as the
// bearer credential. The anon key is used when fn returns "".
func WithTokenSource(fn func() string) Option {
	return func(c *Client) { c.token = fn }
}

// NewClient creates a client for the configured backend.
func NewClient(cfg *config.BackendConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Track records one engagement event.
func (c *Client) Track(ctx context.Context, req *models.TrackRequest) (*models.TrackResponse, error) {
	var out models.TrackResponse
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/track", req, &out); err != nil {
		return nil, fmt.Errorf("track %s/%s/%s: %w", req.ModuleName, req.ItemID, req.EventType, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("track %s/%s/%s: %w", req.ModuleName, req.ItemID, req.EventType, reportedFailure(out.Error))
	}
	return &out, nil
}

// Untrack revokes a previously recorded event.
func (c *Client) Untrack(ctx context.Context, req *models.UntrackRequest) (*models.UntrackResponse, error) {
	var out models.UntrackResponse
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/untrack", req, &out); err != nil {
		return nil, fmt.Errorf("untrack %s/%s/%s: %w", req.ModuleName, req.ItemID, req.EventType, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("untrack %s/%s/%s: %w", req.ModuleName, req.ItemID, req.EventType, reportedFailure(out.Error))
	}
	return &out, nil
}

// Stats fetches aggregate unique counts for an item.
func (c *Client) Stats(ctx context.Context, module, itemID string) (*models.StatsResponse, error) {
	path := fmt.Sprintf("%s/stats/%s/%s", apiPrefix, url.PathEscape(module), url.PathEscape(itemID))
	var out models.StatsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("stats %s/%s: %w", module, itemID, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("stats %s/%s: %w", module, itemID, reportedFailure(out.Error))
	}
	return &out, nil
}

// Check asks whether the caller already tracked the event. An empty userID
// leaves identification to the service's network-origin key.
func (c *Client) Check(ctx context.Context, module, itemID, eventType, userID string) (*models.CheckResponse, error) {
	path := fmt.Sprintf("%s/check/%s/%s/%s", apiPrefix,
		url.PathEscape(module), url.PathEscape(itemID), url.PathEscape(eventType))
	if userID != "" {
		path += "?" + url.Values{"user_id": {userID}}.Encode()
	}
	var out models.CheckResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("check %s/%s/%s: %w", module, itemID, eventType, err)
	}
	if !out.Success {
		return nil, fmt.Errorf("check %s/%s/%s: %w", module, itemID, eventType, reportedFailure(out.Error))
	}
	return &out, nil
}

// do performs one round trip. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer := c.bearer(); bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw := readBodyForError(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			Message:    errorMessage(raw),
		}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) bearer() string {
	if c.token != nil {
		if t := c.token(); t != "" {
			return t
		}
	}
	return c.anonKey
}

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// errorMessage extracts the "error" field of a JSON failure body, if any.
func errorMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}

func reportedFailure(msg string) *APIError {
	if msg == "" {
		msg = "service reported failure"
	}
	return &APIError{StatusCode: http.StatusOK, Message: msg}
}
