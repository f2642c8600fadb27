// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/supervisor"
	"github.com/tomtom215/devotrack/internal/supervisor/services"
	"github.com/tomtom215/devotrack/internal/testinfra"
)

// readyHook is called with the bound address once the mock server listens.
// Tests replace it to learn a port-0 address.
var readyHook = func(net.Addr) {}

func newMockServerCmd(opts *rootOptions) *cobra.Command {
	var (
		addr      string
		duplicate string
	)

	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory tracking backend for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
			}

			fb := testinfra.NewFakeBackend()
			switch duplicate {
			case "already-tracked":
				fb.SetDuplicateMode(testinfra.DuplicateAsAlreadyTracked)
			case "error":
				fb.SetDuplicateMode(testinfra.DuplicateAsError)
			case "conflict":
				fb.SetDuplicateMode(testinfra.DuplicateAsConflict)
			default:
				return fmt.Errorf("--duplicates must be already-tracked, error or conflict, got %q", duplicate)
			}

			return serveMock(cmd.Context(), cfg, addr, fb, cmd)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_HOST:HTTP_PORT)")
	cmd.Flags().StringVar(&duplicate, "duplicates", "already-tracked", "how repeat tracks are answered: already-tracked, error or conflict")
	return cmd
}

func mockRouter(fb *testinfra.FakeBackend) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	fb.Mount(r)
	return r
}

func serveMock(ctx context.Context, cfg *config.Config, addr string, fb *testinfra.FakeBackend, cmd *cobra.Command) error {
	srv := &http.Server{
		Handler:           mockRouter(fb),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{ShutdownTimeout: cfg.Server.Timeout})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	svc := services.NewHTTPService("mock-backend", addr, srv, cfg.Server.Timeout)
	tree.AddAPIService(svc)

	errCh := tree.ServeBackground(ctx)
	select {
	case <-svc.Ready():
		bound := svc.Addr()
		fmt.Fprintf(cmd.OutOrStdout(), "mock backend listening on http://%s\n", bound)
		readyHook(bound)
	case err := <-errCh:
		return fmt.Errorf("mock backend stopped before listening: %w", err)
	}

	err = <-errCh
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mock backend: %w", err)
	}
	logging.Info().Msg("mock backend stopped")
	return nil
}
