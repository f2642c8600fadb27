// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/devotrack/internal/hook"
	"github.com/tomtom215/devotrack/internal/logging"
	"github.com/tomtom215/devotrack/internal/models"
)

func newTrackCmd(opts *rootOptions) *cobra.Command {
	var meta map[string]string

	cmd := &cobra.Command{
		Use:   "track <module> <item_id> <event_type>",
		Short: "Record one engagement event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, itemID, eventType, err := parseTarget(args)
			if err != nil {
				return err
			}
			metadata := make(map[string]any, len(meta))
			for k, v := range meta {
				metadata[k] = v
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.tracker.Record(ctx, models.Event{
					Module: module, ItemID: itemID, EventType: eventType, Metadata: metadata,
				})
				if err != nil {
					logging.Ctx(ctx).Warn().Err(err).Msg("event not tracked")
				}
				return opts.print(result)
			})
		},
	}
	cmd.Flags().StringToStringVarP(&meta, "meta", "m", nil, "event metadata as key=value pairs")
	return cmd
}

func newUntrackCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "untrack <module> <item_id> <event_type>",
		Short: "Revoke a toggleable engagement event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, itemID, eventType, err := parseTarget(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				result, err := a.tracker.Revoke(ctx, models.Event{Module: module, ItemID: itemID, EventType: eventType})
				if err != nil {
					logging.Ctx(ctx).Warn().Err(err).Msg("event not untracked")
				}
				return opts.print(result)
			})
		},
	}
}

type toggleOutput struct {
	Action string                `json:"action"`
	Result models.TrackingResult `json:"result"`
	Stats  models.AggregateStats `json:"stats"`
}

// newToggleCmd flips a like-style event through an engagement handle: it
// loads the counts, checks the current state and tracks or untracks.
func newToggleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <module> <item_id> <event_type>",
		Short: "Track the event if absent, otherwise untrack it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, itemID, eventType, err := parseTarget(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				h := hook.New(a.tracker, module, itemID,
					hook.WithCooldown(a.cfg.Tracker.CooldownWindow),
					hook.WithWatcher(a.session),
				)
				defer h.Close()
				h.Start(ctx)

				out := toggleOutput{Action: string(models.OpTrack)}
				if h.CheckTracked(ctx, eventType) {
					out.Action = string(models.OpUntrack)
					out.Result = h.UntrackEvent(ctx, eventType)
				} else {
					out.Result = h.TrackEvent(ctx, eventType, nil)
				}
				if err := h.Err(); err != nil {
					logging.Ctx(ctx).Warn().Err(err).Msg("toggle did not complete")
				}
				out.Stats = h.Stats()
				return opts.print(out)
			})
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <module> <item_id>",
		Short: "Print aggregate counts for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, itemID, _, err := parseTarget(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				stats, err := a.tracker.FetchStats(ctx, module, itemID)
				if err != nil {
					return fmt.Errorf("fetch stats: %w", err)
				}
				return opts.print(stats)
			})
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <module> <item_id> <event_type>",
		Short: "Report whether the current identity holds the event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, itemID, eventType, err := parseTarget(args)
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				tracked := a.tracker.CheckTracked(ctx, module, itemID, eventType)
				return opts.print(map[string]bool{"tracked": tracked})
			})
		},
	}
}

type consentOutput struct {
	Analytics bool `json:"analytics"`
	Stored    bool `json:"stored"`
}

func newConsentCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "consent [on|off|status]",
		Short:     "Show or change the analytics consent choice",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "status"
			if len(args) == 1 {
				action = args[0]
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				switch action {
				case "on", "off":
					if err := a.consent.Set(action == "on"); err != nil {
						return fmt.Errorf("save consent: %w", err)
					}
					logging.Ctx(ctx).Info().Bool("analytics", action == "on").Msg("analytics consent updated")
				}
				return opts.print(consentOutput{Analytics: a.consent.Enabled(), Stored: a.consent.HasStored()})
			})
		},
	}
}
