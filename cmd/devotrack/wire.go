// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/devotrack/internal/backend"
	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/consent"
	"github.com/tomtom215/devotrack/internal/enrich"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/sink"
	"github.com/tomtom215/devotrack/internal/tracker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// drainTimeout bounds how long a command waits for mirrored events.
const drainTimeout = 5 * time.Second

// app holds everything a tracking command needs.
type app struct {
	cfg        *config.Config
	hints      identity.HintStore
	session    *identity.Session
	consent    *consent.Gate
	dispatcher *sink.Dispatcher
	tracker    *tracker.Tracker
	closers    []io.Closer
}

// newApp wires the tracking core from cfg. The signed-in user, if any, is
// applied by the caller through app.session.
func newApp(cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	a.hints, err = identity.OpenHintStore(identity.StoreType(cfg.Identity.HintStore), cfg.Identity.HintStorePath)
	if err != nil {
		return nil, fmt.Errorf("open hint store: %w", err)
	}
	a.session = identity.NewSession(a.hints)
	a.consent = consent.NewGate(a.hints)

	classifier := tracker.NewClassifier(cfg.Tracker.DuplicateSignatures)

	var api backend.API = backend.NewClient(&cfg.Backend,
		backend.WithUserAgent("devotrack/"+version),
		backend.WithTokenSource(a.session.AccessToken),
	)
	if cfg.CircuitBreaker.Enabled {
		api = backend.NewCircuitBreakerClient(api, cfg.CircuitBreaker, backend.WithSuccessFunc(classifier.BreakerHealthy))
	}

	reporters, err := a.buildReporters()
	if err != nil {
		return nil, err
	}
	a.dispatcher = sink.NewDispatcher(sink.NewFanout(reporters...))

	enricher := enrich.New(enrich.Runtime{
		UserAgent:  cfg.Tracker.UserAgent,
		Platform:   cfg.Tracker.Platform,
		AppVersion: cfg.Tracker.AppVersion,
	}, a.session)

	a.tracker = tracker.New(api, a.session,
		tracker.WithEnricher(enricher),
		tracker.WithConsent(a.consent),
		tracker.WithMirror(a.dispatcher),
		tracker.WithClassifier(classifier),
		tracker.WithTimeout(cfg.Backend.Timeout),
		tracker.WithAllowAnonymous(cfg.Tracker.AllowAnonymous),
	)
	return a, nil
}

func (a *app) buildReporters() ([]sink.Reporter, error) {
	var reporters []sink.Reporter

	if a.cfg.Sinks.GA4.Enabled {
		ga, err := sink.NewGA4Reporter(a.cfg.Sinks.GA4, a.hints)
		if err != nil {
			return nil, fmt.Errorf("ga4 sink: %w", err)
		}
		reporters = append(reporters, ga)
	}

	if a.cfg.Sinks.NATS.Enabled {
		nr, err := sink.NewNATSReporter(a.cfg.Sinks.NATS)
		if err != nil {
			return nil, fmt.Errorf("nats sink: %w", err)
		}
		reporters = append(reporters, nr)
		a.closers = append(a.closers, nr)
	}

	if len(reporters) > 0 {
		logging.Debug().Int("sinks", len(reporters)).Msg("secondary analytics sinks enabled")
	}
	return reporters, nil
}

// Close drains mirrored events and releases the hint store.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	var errs []error
	if err := a.dispatcher.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *app) closeResources() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.hints != nil {
		if err := a.hints.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close hint store: %w", err))
		}
		a.hints = nil
	}
	return errors.Join(errs...)
}
