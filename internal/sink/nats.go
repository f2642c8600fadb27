// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package sink

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/logging"
)

// DefaultSubjectPrefix is the subject root for mirrored events.
const DefaultSubjectPrefix = "devotrack.events"

// EventHeader carries the full event name on every message.
const EventHeader = "Devotrack-Event"

// Envelope is the JSON body published for each event.
type Envelope struct {
	Event       string         `json:"event"`
	Module      string         `json:"module"`
	EventType   string         `json:"event_type"`
	Params      map[string]any `json:"params"`
	PublishedAt time.Time      `json:"published_at"`
}

// NATSReporter publishes events on {prefix}.{module}.
type NATSReporter struct {
	nc           *nats.Conn
	prefix       string
	flushTimeout time.Duration
	owned        bool
}

// NewNATSReporter connects to cfg.URL. Close releases the connection.
func NewNATSReporter(cfg config.NATSSinkConfig) (*NATSReporter, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("devotrack"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("nats sink disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logging.Info().Str("url", c.ConnectedUrl()).Msg("nats sink reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	r := NewNATSReporterConn(nc, cfg.SubjectPrefix, cfg.FlushTimeout)
	r.owned = true
	return r, nil
}

// NewNATSReporterConn publishes over an existing connection, which the
// caller keeps ownership of.
func NewNATSReporterConn(nc *nats.Conn, prefix string, flushTimeout time.Duration) *NATSReporter {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if flushTimeout <= 0 {
		flushTimeout = 2 * time.Second
	}
	return &NATSReporter{nc: nc, prefix: prefix, flushTimeout: flushTimeout}
}

// Name implements the metrics label hook.
func (r *NATSReporter) Name() string { return NameNATS }

// Subject returns the subject an event name is published on.
func (r *NATSReporter) Subject(eventName string) string {
	module, _, ok := SplitEventName(eventName)
	if !ok {
		return r.prefix + ".unknown"
	}
	return r.prefix + "." + string(module)
}

// Report publishes one event and flushes so delivery errors surface here.
func (r *NATSReporter) Report(ctx context.Context, eventName string, params map[string]any) error {
	module, eventType, _ := SplitEventName(eventName)
	data, err := json.Marshal(Envelope{
		Event:       eventName,
		Module:      string(module),
		EventType:   string(eventType),
		Params:      params,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("nats: encode event: %w", err)
	}

	msg := nats.NewMsg(r.Subject(eventName))
	msg.Header.Set(EventHeader, eventName)
	msg.Data = data
	if err := r.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats: publish %s: %w", msg.Subject, err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, r.flushTimeout)
	defer cancel()
	if err := r.nc.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("nats: flush: %w", err)
	}
	return nil
}

// Close drains the connection if the reporter opened it.
func (r *NATSReporter) Close() error {
	if !r.owned {
		return nil
	}
	return r.nc.Drain()
}
