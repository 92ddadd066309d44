// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package redisbus implements a [signal.PubSub] on top of Redis
// publish/subscribe, allowing signals to cross process boundaries.
//
// Payloads are JSON-encoded when published and decoded into an untyped
// value (string, float64, bool, map[string]any, []any, or nil) when
// received.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/trace"

	"github.com/redis/go-redis/v9"
	"vawter.tech/taskctl/signal"
)

// DefaultPrefix is prepended to signal names to form channel names.
const DefaultPrefix = "taskctl:"

// Bus is a [signal.PubSub] backed by Redis.
type Bus struct {
	client redis.UniversalClient
	prefix string
}

var _ signal.PubSub = (*Bus)(nil)

// New constructs a Bus. An empty prefix is replaced with
// [DefaultPrefix].
func New(client redis.UniversalClient, prefix string) *Bus {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Bus{client: client, prefix: prefix}
}

// Channel returns the Redis channel used for the signal name.
func (b *Bus) Channel(name string) string {
	return b.prefix + name
}

// Publish implements [signal.Publisher].
func (b *Bus) Publish(ctx context.Context, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", name, err)
	}
	if err := b.client.Publish(ctx, b.Channel(name), data).Err(); err != nil {
		return fmt.Errorf("publishing %s: %w", name, err)
	}
	return nil
}

// Subscribe implements [signal.Subscriber]. The subscription has been
// confirmed by the server when Subscribe returns, so any later
// publication will be received.
func (b *Bus) Subscribe(ctx context.Context, names ...string) (signal.Subscription, error) {
	if len(names) == 0 {
		return nil, signal.ErrNoNames
	}
	channels := make([]string, len(names))
	for i, name := range names {
		channels[i] = b.Channel(name)
	}

	sub := b.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribing to %v: %w", names, err)
	}
	return &subscription{sub: sub}, nil
}

// Wait implements [signal.Bus].
func (b *Bus) Wait(ctx context.Context, names ...string) (any, error) {
	sub, err := b.Subscribe(ctx, names...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Close() }()
	return sub.Next(ctx)
}

type subscription struct {
	sub *redis.PubSub
}

func (s *subscription) Next(ctx context.Context) (any, error) {
	defer trace.StartRegion(ctx, "signal wait").End()
	select {
	case msg, ok := <-s.sub.Channel():
		if !ok {
			return nil, redis.ErrClosed
		}
		return decode(msg.Payload)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *subscription) Close() error {
	err := s.sub.Close()
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}

func decode(data string) (any, error) {
	var payload any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	return payload, nil
}
