// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/identity"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/models"
)

// configLoader loads and validates configuration.
type configLoader func() (*config.Config, error)

type rootOptions struct {
	load     configLoader
	out      io.Writer
	userID   string
	token    string
	city     string
	logLevel string
}

func newRootCmd(load configLoader, out io.Writer) *cobra.Command {
	opts := &rootOptions{load: load, out: out}

	cmd := &cobra.Command{
		Use:           "devotrack",
		Short:         "Track engagement on devotional content",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.userID, "user", "", "signed-in user id")
	flags.StringVar(&opts.token, "token", "", "session access token; its subject becomes the user id")
	flags.StringVar(&opts.city, "city", "", "city hint attached to tracked events")
	flags.StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newTrackCmd(opts),
		newUntrackCmd(opts),
		newToggleCmd(opts),
		newStatsCmd(opts),
		newCheckCmd(opts),
		newConsentCmd(opts),
		newMockServerCmd(opts),
	)
	return cmd
}

// loadConfig loads configuration and applies the logging settings.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if o.logLevel != "" {
		if !logging.ValidLevel(o.logLevel) {
			return nil, fmt.Errorf("invalid --log-level %q", o.logLevel)
		}
		cfg.Logging.Level = o.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	return cfg, nil
}

// withApp runs fn against a freshly wired app and closes it afterwards.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("shutdown incomplete")
		}
	}()

	switch {
	case o.token != "":
		if err := a.session.SignInWithToken(o.token, identity.Profile{City: o.city}); err != nil {
			return err
		}
		logging.Debug().
			Str("token", logging.MaskSecret(o.token)).
			Str("user_id", logging.MaskUserID(a.session.CurrentUserID())).
			Msg("signed in with access token")
	case o.userID != "":
		a.session.SignIn(o.userID, identity.Profile{City: o.city})
	}

	ctx := logging.ContextWithNewCorrelationID(cmd.Context())
	return fn(ctx, a)
}

func (o *rootOptions) print(v interface{}) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseModule(s string) (models.Module, error) {
	m, ok := models.ParseModule(s)
	if !ok {
		return "", fmt.Errorf("unknown module %q (want one of %v)", s, models.AllModules())
	}
	return m, nil
}

func parseEventType(s string) (models.EventType, error) {
	e, ok := models.ParseEventType(s)
	if !ok {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return e, nil
}

// parseTarget reads the <module> <item_id> [event_type] positional args.
func parseTarget(args []string) (models.Module, string, models.EventType, error) {
	module, err := parseModule(args[0])
	if err != nil {
		return "", "", "", err
	}
	if len(args) < 3 {
		return module, args[1], "", nil
	}
	eventType, err := parseEventType(args[2])
	if err != nil {
		return "", "", "", err
	}
	return module, args[1], eventType, nil
}
