// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// carried is a value threaded from one call of a wrapped Worker to the
// next. It is shared by every concurrent call of that Worker.
type carried[T any] struct {
	mu sync.Mutex
	v  T
}

func (c *carried[T]) load() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *carried[T]) swap(v T) (old T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	old, c.v = c.v, v
	return old
}

// An ActionWorker receives the incoming action together with the action
// of the previous call.
type ActionWorker[A, R any] func(ctx context.Context, action, previous A, bound ...any) (R, error)

// PreviousActionOptions configures [WithPreviousAction].
type PreviousActionOptions[A any] struct {
	// Initial is passed as the previous action on the first call.
	Initial A
	// NoReturn detaches the Worker: the call returns immediately
	// without a result and the Worker's error is never returned.
	NoReturn bool
	// Spawner runs detached Workers. Defaults to [DefaultSpawner].
	Spawner Spawner
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

func (o PreviousActionOptions[A]) sanitize() PreviousActionOptions[A] {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Spawner == nil {
		o.Spawner = DefaultSpawner(o.Logger)
	}
	return o
}

// WithPreviousAction returns a function that invokes w with each
// incoming action and the action of the preceding call.
//
// The previous action is recorded once w returns successfully; a
// failed call leaves it unchanged. With [PreviousActionOptions.NoReturn]
// w is handed to the Spawner with a context that is not canceled when
// the caller's context is, the previous action is recorded at once, and
// the zero value is returned. Detached invocations may therefore run
// concurrently and observe the previous action in any order.
//
// The previous action is shared by all calls of the returned function,
// including concurrent ones.
func WithPreviousAction[A, R any](
	w ActionWorker[A, R], opts PreviousActionOptions[A], bound ...any,
) func(ctx context.Context, action A) (R, error) {
	o := opts.sanitize()
	previous := &carried[A]{v: o.Initial}
	bound = slices.Clone(bound)

	return func(ctx context.Context, action A) (R, error) {
		prev := previous.load()
		args := slices.Concat([]any{action, prev}, bound)
		run := func(ctx context.Context) (R, error) {
			return invoke(ctx, "previous-action", 0, args, func(ctx context.Context) (R, error) {
				return w(ctx, action, prev, bound...)
			})
		}

		if o.NoReturn {
			o.Spawner.Spawn(context.WithoutCancel(ctx), func(ctx context.Context) error {
				_, err := run(ctx)
				return err
			})
			previous.swap(action)
			var zero R
			return zero, nil
		}

		ret, err := run(ctx)
		if err != nil {
			return ret, err
		}
		previous.swap(action)
		return ret, nil
	}
}

// A Response pairs a Worker's result with the result of the preceding
// successful call.
type Response[R any] struct {
	Prev R
	Next R
}

// PreviousResponseOptions configures [WithPreviousResponse].
type PreviousResponseOptions[R any] struct {
	// Initial is reported as the previous response on the first call.
	Initial R
}

// WithPreviousResponse returns a function that invokes w and reports
// its result together with the result of the preceding successful
// call. Errors from w are returned as-is and do not replace the
// previous response, which is shared by all calls of the returned
// function.
func WithPreviousResponse[R any](
	w Worker[R], opts PreviousResponseOptions[R], bound ...any,
) func(ctx context.Context, args ...any) (Response[R], error) {
	previous := &carried[R]{v: opts.Initial}
	bound = slices.Clone(bound)

	return func(ctx context.Context, args ...any) (Response[R], error) {
		next, err := call(ctx, "previous-response", 0, w, slices.Concat(bound, args))
		if err != nil {
			return Response[R]{}, err
		}
		return Response[R]{Prev: previous.swap(next), Next: next}, nil
	}
}
