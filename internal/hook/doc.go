// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

// Package hook adapts the tracker to a UI component bound to one
// (module, item) pair.
//
// A Handle keeps the item's aggregate counts, a loading flag and the last
// error, and updates them from track, untrack and stats results. Responses
// can arrive out of order, so every operation takes a sequence number and a
// result is dropped when a newer fetch has already been applied or the
// handle has moved to another item. A failed refresh keeps the previous
// counts.
//
//	h := hook.New(tr, models.ModuleWallpaper, "w-1",
//	    hook.WithWatcher(session),
//	    hook.WithCooldown(300*time.Millisecond))
//	defer h.Close()
//	h.OnChange(render)
//	h.Start(ctx)
//	h.TrackEvent(ctx, models.EventLike, nil)
package hook
