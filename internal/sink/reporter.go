// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package sink

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/tomtom215/devotrack/internal/models"
)

// Reporter delivers one named event with its parameters.
type Reporter interface {
	Report(ctx context.Context, eventName string, params map[string]any) error
}

// Sink names used as metric labels.
const (
	NameGA4    = "ga4"
	NameNATS   = "nats"
	NameFanout = "fanout"
	nameOther  = "reporter"
)

type named interface {
	Name() string
}

func reporterName(r Reporter) string {
	if n, ok := r.(named); ok {
		return n.Name()
	}
	return nameOther
}

// Params builds the reporter parameters for ev: its metadata plus item_id.
func Params(ev models.Event) map[string]any {
	out := make(map[string]any, len(ev.Metadata)+1)
	for k, v := range ev.Metadata {
		out[k] = v
	}
	out["item_id"] = ev.ItemID
	return out
}

// SplitEventName recovers the module and event type from a "{module}_{event}"
// name. Module names may contain underscores, so known modules are matched
// longest first.
func SplitEventName(name string) (models.Module, models.EventType, bool) {
	for _, m := range modulesByLength {
		prefix := string(m) + "_"
		if strings.HasPrefix(name, prefix) {
			return m, models.EventType(strings.TrimPrefix(name, prefix)), true
		}
	}
	return "", "", false
}

var modulesByLength = func() []models.Module {
	mods := models.AllModules()
	sort.SliceStable(mods, func(i, j int) bool { return len(mods[i]) > len(mods[j]) })
	return mods
}()

// Fanout delivers to every reporter in order.
type Fanout []Reporter

// NewFanout drops nil entries. It returns nil for no reporters and the
// reporter itself for exactly one.
func NewFanout(reporters ...Reporter) Reporter {
	var out Fanout
	for _, r := range reporters {
		if r != nil {
			out = append(out, r)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

// Name implements the metrics label hook.
func (f Fanout) Name() string { return NameFanout }

// Report calls every reporter and joins their errors.
func (f Fanout) Report(ctx context.Context, eventName string, params map[string]any) error {
	var errs []error
	for _, r := range f {
		if err := r.Report(ctx, eventName, params); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
