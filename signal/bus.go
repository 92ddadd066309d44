// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package signal defines the publish/subscribe collaborator used by the
// signal-driven combinators.
//
// A [Bus] delivers the next occurrence of a named signal to a waiting
// caller. Signals are observed, never owned: a waiter only sees
// publications that happen while it is waiting. The in-process [Hub] is
// suitable for tests and single-binary programs; the redisbus
// sub-package shares signals between processes.
package signal

import (
	"context"
	"errors"
)

// ErrNoNames is returned when a caller waits without naming a signal.
var ErrNoNames = errors.New("at least one signal name is required")

// A Bus blocks until the next occurrence of any of the named signals
// and returns its payload.
//
// Implementations must return promptly with the context's error when
// the context is canceled.
type Bus interface {
	Wait(ctx context.Context, names ...string) (payload any, err error)
}

// A Publisher emits a signal to all current waiters.
type Publisher interface {
	Publish(ctx context.Context, name string, payload any) error
}

// A PubSub is a [Subscriber] and a [Publisher].
type PubSub interface {
	Subscriber
	Publisher
}

// A Subscription holds interest in a set of signal names so that an
// occurrence published after the Subscription was opened is not lost.
// It yields at most one occurrence.
type Subscription interface {
	// Next blocks until the first occurrence of any subscribed name
	// and returns its payload.
	Next(ctx context.Context) (payload any, err error)
	// Close releases the Subscription. It is safe to call more than
	// once.
	Close() error
}

// A Subscriber is a [Bus] that can register interest before the caller
// is ready to block.
type Subscriber interface {
	Bus
	Subscribe(ctx context.Context, names ...string) (Subscription, error)
}

// Subscribe opens a [Subscription] on the bus. If the bus is not a
// [Subscriber], registration is deferred to [Subscription.Next], and
// occurrences published before Next is called may be missed.
func Subscribe(ctx context.Context, bus Bus, names ...string) (Subscription, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	if s, ok := bus.(Subscriber); ok {
		return s.Subscribe(ctx, names...)
	}
	return &deferred{bus: bus, names: names}, nil
}

type deferred struct {
	bus   Bus
	names []string
}

func (d *deferred) Next(ctx context.Context) (any, error) { return d.bus.Wait(ctx, d.names...) }

func (d *deferred) Close() error { return nil }
