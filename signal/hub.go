// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package signal

import (
	"context"
	"runtime/trace"
	"sync"
)

// Hub is an in-process [PubSub]. The zero value is ready to use.
//
// Each call to [Hub.Wait] registers a one-shot waiter on every name it
// was given. A publication is delivered to each waiter registered on
// that name at the time of the call, after which the waiter is removed
// from all of its names.
type Hub struct {
	mu struct {
		sync.Mutex
		nextID  uint64
		waiters map[string]map[uint64]*waiter
	}
}

var _ PubSub = (*Hub)(nil)

type waiter struct {
	ch    chan any // Buffered, receives at most one payload.
	names []string
}

// NewHub returns a ready-to-use Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Notify delivers the payload to all current waiters on the name and
// returns the number of waiters that received it.
func (h *Hub) Notify(name string, payload any) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	waiting := h.mu.waiters[name]
	count := len(waiting)
	for id, w := range waiting {
		w.ch <- payload
		h.removeLocked(id, w)
	}
	return count
}

// Publish implements [Publisher]. It never blocks and never fails
// unless the context has already been canceled.
func (h *Hub) Publish(ctx context.Context, name string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.Notify(name, payload)
	return nil
}

// Subscribe implements [Subscriber]. The waiter is registered before
// Subscribe returns.
func (h *Hub) Subscribe(ctx context.Context, names ...string) (Subscription, error) {
	if len(names) == 0 {
		return nil, ErrNoNames
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, w := h.register(names)
	return &hubSubscription{hub: h, id: id, w: w}, nil
}

// Wait implements [Bus].
func (h *Hub) Wait(ctx context.Context, names ...string) (any, error) {
	sub, err := h.Subscribe(ctx, names...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = sub.Close() }()
	return sub.Next(ctx)
}

type hubSubscription struct {
	hub *Hub
	id  uint64
	w   *waiter
}

func (s *hubSubscription) Next(ctx context.Context) (any, error) {
	defer trace.StartRegion(ctx, "signal wait").End()
	select {
	case payload := <-s.w.ch:
		return payload, nil
	case <-ctx.Done():
		// A publication may have raced with cancellation.
		select {
		case payload := <-s.w.ch:
			return payload, nil
		default:
		}
		return nil, ctx.Err()
	}
}

func (s *hubSubscription) Close() error {
	s.hub.unregister(s.id, s.w)
	return nil
}

// Waiting returns the number of callers currently blocked on the name.
func (h *Hub) Waiting(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.mu.waiters[name])
}

func (h *Hub) register(names []string) (uint64, *waiter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.mu.waiters == nil {
		h.mu.waiters = make(map[string]map[uint64]*waiter)
	}
	id := h.mu.nextID
	h.mu.nextID++
	w := &waiter{ch: make(chan any, 1), names: names}
	for _, name := range names {
		byID := h.mu.waiters[name]
		if byID == nil {
			byID = make(map[uint64]*waiter)
			h.mu.waiters[name] = byID
		}
		byID[id] = w
	}
	return id, w
}

func (h *Hub) unregister(id uint64, w *waiter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id, w)
}

func (h *Hub) removeLocked(id uint64, w *waiter) {
	for _, name := range w.names {
		byID := h.mu.waiters[name]
		delete(byID, id)
		if len(byID) == 0 {
			delete(h.mu.waiters, name)
		}
	}
}
