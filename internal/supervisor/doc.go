// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

/*
Package supervisor runs the long-lived parts of devotrack under suture v4.

The CLI is mostly one-shot, but the mock-server command stays up until it
receives a signal. It is run as a small tree:

	RootSupervisor ("devotrack")
	└── APISupervisor ("api-layer")
	    └── HTTPService ("mock-backend")

A crashed service is restarted with suture's backoff. Supervisor events are
logged through sutureslog, bridged to zerolog by logging.NewSlogLogger.

Example:

	tree, err := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPService("mock-backend", addr, srv, 10*time.Second))
	return tree.Serve(ctx)
*/
package supervisor
