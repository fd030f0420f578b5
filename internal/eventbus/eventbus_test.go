// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishAndSubscribe(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx, TopicPublishes)
	require.NoError(t, err)

	event := PackagePublished{Name: "foo", Version: "0.1.0", Classification: "NewCrate", Cksum: "deadbeef"}
	require.NoError(t, bus.PublishPackagePublished(event))

	select {
	case msg := <-messages:
		var got PackagePublished
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		require.Equal(t, event, got)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestRunDrainingSubscriber_DrainsWithoutBlockingPublisher(t *testing.T) {
	bus := New()
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = RunDrainingSubscriber(ctx, bus) }()
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.PublishPackagePublished(PackagePublished{Name: "foo", Version: "0.1.0"}))
	}
}
