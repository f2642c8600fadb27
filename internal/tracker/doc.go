// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package tracker is the engagement tracking core.

A Tracker turns a user action into at most one call against the tracking
service and always hands back a structurally valid models.TrackingResult.
Nothing here returns an error to the UI for a tracking outcome; failures are
classified, logged and counted, and show up as the zero result.

Before any network call, Track checks in order:

  - the event is well formed (known module, known event type, item id present)
  - analytics consent has not been withdrawn
  - a user id is available, unless the module is auth or the tracker allows
    anonymous tracking

A rejected write the service reports as a duplicate is success: the user
already holds the action. Classifier decides what counts as a duplicate from a
configurable list of error signatures plus HTTP 409.

Genuinely new tracks are mirrored to the secondary sink through the Mirror
interface. ApplyResult is the pure reducer the hook adapter uses to fold a
result into its local counts.
*/
package tracker
