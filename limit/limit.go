// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package limit provides combinators that impose execution limits on
// a [taskctl.Worker].
//
// The limits are shared by every call of the returned Worker. In
// general, rate limits should be applied outside of concurrency limits
// so that a caller waiting for a token does not hold a slot.
package limit

import (
	"context"
	"errors"
	"runtime/trace"

	"golang.org/x/time/rate"
	"vawter.tech/taskctl"
)

// MaxConcurrency limits the number of concurrent invocations of the
// Worker. Callers block until a slot is available or their context is
// canceled, in which case the context's error is returned without
// invoking the Worker.
func MaxConcurrency[R any](w taskctl.Worker[R], limit int) taskctl.Worker[R] {
	if limit <= 0 {
		panic(errors.New("limit must be greater than zero"))
	}
	ch := make(chan struct{}, limit)
	return func(ctx context.Context, args ...any) (R, error) {
		if err := acquire(ctx, ch); err != nil {
			var zero R
			return zero, err
		}
		defer func() { <-ch }()
		return w(ctx, args...)
	}
}

func acquire(ctx context.Context, ch chan<- struct{}) error {
	// Fast-path: A concurrency slot is available.
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}

	defer trace.StartRegion(ctx, "concurrency wait").End()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxRate is a wrapper around a [rate.Limiter] that enforces a rate of
// r invocations per second with a burst size of b by blocking callers.
// If the context is canceled, or would expire before a token becomes
// available, an error is returned without invoking the Worker.
func MaxRate[R any](w taskctl.Worker[R], r float64, b int) taskctl.Worker[R] {
	l := rate.NewLimiter(rate.Limit(r), b)
	return func(ctx context.Context, args ...any) (R, error) {
		// Fast-path: there's capacity.
		if !l.Allow() {
			region := trace.StartRegion(ctx, "rate limit wait")
			err := l.Wait(ctx)
			region.End()
			if err != nil {
				var zero R
				return zero, err
			}
		}
		return w(ctx, args...)
	}
}
