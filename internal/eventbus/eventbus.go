// cargoindex - package registry server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cargoindex

// Package eventbus publishes a PackagePublished event after every
// successful publish (spec §4.9.2's ambient-observability addition). It
// reduces the resilient, NATS-backed watermill.Publisher shape from
// tomtom215-cartographus/internal/eventprocessor/publisher.go down to an
// in-process github.com/ThreeDotsLabs/watermill/pubsub/gochannel.GoChannel
// bus — no external broker, no circuit breaker — since spec §4.7's
// Non-goals already rule out cross-process replication.
package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/cargoindex/internal/logging"
)

// TopicPublishes is where PackagePublished events are sent.
const TopicPublishes = "publishes"

// PackagePublished is emitted once a publish has committed to the catalog,
// the file store, and the index.
type PackagePublished struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	Classification string `json:"classification"`
	Cksum          string `json:"cksum"`
}

// Bus wraps an in-process Watermill pub/sub pair.
type Bus struct {
	pubSub *gochannel.GoChannel
}

// New returns a Bus backed by gochannel.GoChannel, logging through the
// shared zerolog logger via a watermill.LoggerAdapter shim.
func New() *Bus {
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger{},
	)
	return &Bus{pubSub: pubSub}
}

// PublishPackagePublished publishes event to TopicPublishes.
func (b *Bus) PublishPackagePublished(event PackagePublished) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling publish event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubSub.Publish(TopicPublishes, msg); err != nil {
		return fmt.Errorf("publishing to %s: %w", TopicPublishes, err)
	}
	return nil
}

// Subscribe returns the channel of messages for topic, matching
// message.Subscriber's contract.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topic)
}

// Close shuts down the underlying pub/sub.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

// RunDrainingSubscriber consumes and acknowledges every message on
// TopicPublishes until ctx is canceled. There is no durable consumer in
// this registry (spec §4.7 Non-goals); this exists so publishers never
// block waiting for a subscriber that never arrives.
func RunDrainingSubscriber(ctx context.Context, bus *Bus) error {
	messages, err := bus.Subscribe(ctx, TopicPublishes)
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", TopicPublishes, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			msg.Ack()
		}
	}
}

// watermillLogger adapts the process-wide zerolog logger to
// watermill.LoggerAdapter.
type watermillLogger struct{}

func (watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	logging.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

func (watermillLogger) Info(msg string, fields watermill.LogFields) {
	logging.Info().Fields(map[string]any(fields)).Msg(msg)
}

func (watermillLogger) Debug(msg string, fields watermill.LogFields) {
	logging.Debug().Fields(map[string]any(fields)).Msg(msg)
}

func (watermillLogger) Trace(msg string, fields watermill.LogFields) {
	logging.Trace().Fields(map[string]any(fields)).Msg(msg)
}

func (watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{}
}
