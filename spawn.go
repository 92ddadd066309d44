// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"vawter.tech/taskctl/internal/safe"
)

// A Spawner executes a function without the caller awaiting its
// completion. Implementations decide what happens to returned errors.
type Spawner interface {
	Spawn(ctx context.Context, fn func(context.Context) error)
}

// SpawnerFunc adapts a function to the [Spawner] interface.
type SpawnerFunc func(ctx context.Context, fn func(context.Context) error)

// Spawn implements [Spawner].
func (f SpawnerFunc) Spawn(ctx context.Context, fn func(context.Context) error) { f(ctx, fn) }

// DefaultSpawner returns a [Spawner] that runs each function in a new
// goroutine. Errors and recovered panics are logged at error level
// since no caller remains to observe them. A nil logger is replaced
// with [slog.Default].
func DefaultSpawner(logger *slog.Logger) Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	return SpawnerFunc(func(ctx context.Context, fn func(context.Context) error) {
		go func() {
			if err := safe.CallE(func() error { return fn(ctx) }); err != nil {
				logger.ErrorContext(ctx, "detached worker failed", slog.Any("error", err))
			}
		}()
	})
}

// A Group is a [Spawner] that tracks the functions it has started so
// that their completion can be awaited. The zero value is ready to
// use.
type Group struct {
	wg sync.WaitGroup

	mu struct {
		sync.Mutex
		errs []error
	}
}

var _ Spawner = (*Group)(nil)

// Spawn implements [Spawner].
func (g *Group) Spawn(ctx context.Context, fn func(context.Context) error) {
	g.wg.Go(func() {
		if err := safe.CallE(func() error { return fn(ctx) }); err != nil {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.mu.errs = append(g.mu.errs, err)
		}
	})
}

// Wait blocks until all spawned functions have returned and joins any
// errors they produced.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.mu.errs...)
}
