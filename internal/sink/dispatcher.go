// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package sink

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/metrics"
	"github.com/tomtom215/devotrack/internal/models"
)

// DefaultReportTimeout bounds each asynchronous delivery.
const DefaultReportTimeout = 5 * time.Second

// Dispatcher forwards events to a Reporter without blocking the caller.
// A nil *Dispatcher, or one built with a nil Reporter, drops every event.
type Dispatcher struct {
	reporter Reporter
	name     string
	timeout  time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithReportTimeout overrides DefaultReportTimeout.
func WithReportTimeout(d time.Duration) DispatcherOption {
	return func(ds *Dispatcher) {
		if d > 0 {
			ds.timeout = d
		}
	}
}

// NewDispatcher creates a dispatcher for r, which may be nil.
func NewDispatcher(r Reporter, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		reporter: r,
		timeout:  DefaultReportTimeout,
		logger:   logging.WithComponent("sink"),
	}
	if r != nil {
		d.name = reporterName(r)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether a reporter is configured.
func (d *Dispatcher) Enabled() bool {
	return d != nil && d.reporter != nil
}

// Dispatch mirrors ev in the background. It returns immediately.
func (d *Dispatcher) Dispatch(ev models.Event) {
	if !d.Enabled() {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		metrics.RecordSinkReport(d.name, metrics.SinkSkipped)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	name := ev.Name()
	params := Params(ev)

	metrics.SinkInFlight.Inc()
	go func() {
		defer d.wg.Done()
		defer metrics.SinkInFlight.Dec()
		d.deliver(name, params)
	}()
}

func (d *Dispatcher) deliver(name string, params map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordSinkReport(d.name, metrics.SinkPanic)
			d.logger.Warn().
				Str("sink", d.name).
				Str("event", name).
				Str("panic", fmt.Sprint(r)).
				Msg("secondary sink panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.reporter.Report(ctx, name, params); err != nil {
		metrics.RecordSinkReport(d.name, metrics.SinkFailed)
		d.logger.Warn().Err(err).Str("sink", d.name).Str("event", name).Msg("secondary sink delivery failed")
		return
	}
	metrics.RecordSinkReport(d.name, metrics.SinkDelivered)
}

// Close stops accepting events and waits for in-flight deliveries until ctx
// is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sink: drain interrupted: %w", ctx.Err())
	}
}
