// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package sink

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/devotrack/internal/config"
	"github.com/tomtom215/devotrack/internal/models"
)

// startNATS runs an embedded server on a random port.
func startNATS(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		Host:   "127.0.0.1",
		Port:   server.RANDOM_PORT,
		NoLog:  true,
		NoSigs: true,
	})
	require.NoError(t, err)

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(func() {
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return ns
}

func TestNATSReporter_PublishesOnModuleSubject(t *testing.T) {
	ns := startNATS(t)

	sub, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer sub.Close()

	msgs := make(chan *nats.Msg, 4)
	_, err = sub.ChanSubscribe("devotrack.events.>", msgs)
	require.NoError(t, err)
	require.NoError(t, sub.Flush())

	r, err := NewNATSReporter(config.NATSSinkConfig{
		Enabled:       true,
		URL:           ns.ClientURL(),
		SubjectPrefix: "devotrack.events",
		FlushTimeout:  time.Second,
	})
	require.NoError(t, err)
	defer r.Close()

	err = r.Report(context.Background(), "ask_gugan_message_sent", map[string]any{"item_id": "conv-1"})
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "devotrack.events.ask_gugan", msg.Subject)
		assert.Equal(t, "ask_gugan_message_sent", msg.Header.Get(EventHeader))

		var env Envelope
		require.NoError(t, json.Unmarshal(msg.Data, &env))
		assert.Equal(t, "ask_gugan", env.Module)
		assert.Equal(t, "message_sent", env.EventType)
		assert.Equal(t, "conv-1", env.Params["item_id"])
		assert.False(t, env.PublishedAt.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSReporter_ThroughDispatcher(t *testing.T) {
	ns := startNATS(t)

	nc, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	msgs := make(chan *nats.Msg, 4)
	_, err = nc.ChanSubscribe("mirror.>", msgs)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	r := NewNATSReporterConn(nc, "mirror.", 0)
	assert.NoError(t, r.Close(), "borrowed connection is left open")

	d := NewDispatcher(r)
	d.Dispatch(models.Event{Module: models.ModuleBanner, ItemID: "b-1", EventType: models.EventClick})
	require.NoError(t, d.Close(context.Background()))

	select {
	case msg := <-msgs:
		assert.Equal(t, "mirror.banner", msg.Subject)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNATSReporter_Subject(t *testing.T) {
	r := NewNATSReporterConn(nil, "", 0)
	assert.Equal(t, "devotrack.events.video", r.Subject("video_watch_complete"))
	assert.Equal(t, "devotrack.events.unknown", r.Subject("mystery"))
}
