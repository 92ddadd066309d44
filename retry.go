// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"
)

// RetryOptions configures [Retry].
type RetryOptions struct {
	// Interval is the fixed delay between a failed attempt and the
	// next one. It is ignored if Backoff is set.
	Interval time.Duration
	// MaxRetries bounds the total number of attempts made by the
	// wrapped Worker across all of its calls. Zero means unbounded,
	// which requires a positive Interval or a Backoff.
	MaxRetries int
	// Backoff, if set, replaces Interval with an exponential delay.
	// Each call of the wrapped Worker starts a fresh sequence.
	Backoff *Backoff
	// Retryable defaults to retrying all errors. Errors it rejects are
	// returned as-is.
	Retryable func(error) bool
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

func (o RetryOptions) sanitize() RetryOptions {
	if o.Interval < 0 {
		panic(errors.New("retry interval must not be negative"))
	}
	if o.MaxRetries < 0 {
		panic(errors.New("max retries must not be negative"))
	}
	if o.MaxRetries == 0 && o.Interval == 0 && o.Backoff == nil {
		panic(errors.New("an unbounded retry requires an interval or a backoff"))
	}
	if o.Retryable == nil {
		o.Retryable = func(error) bool { return true }
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Retry returns a Worker that invokes w until it succeeds, waiting
// between failed attempts.
//
// The attempt budget set by [RetryOptions.MaxRetries] belongs to the
// returned Worker and is shared by all of its calls: once spent it is
// never replenished, and later calls fail immediately with a
// [*MaxRetriesError]. Wrap the Worker again to obtain a fresh budget.
//
// The Worker receives the bound arguments followed by the arguments
// of each call. If the context is canceled, the Worker is not retried
// and Retry returns either the Worker's error or the context's error.
func Retry[R any](w Worker[R], opts RetryOptions, bound ...any) Worker[R] {
	o := opts.sanitize()
	attempts := newBudget(o.MaxRetries)

	return func(ctx context.Context, args ...any) (R, error) {
		var zero R
		callArgs := slices.Concat(bound, args)

		next := func() time.Duration { return o.Interval }
		if o.Backoff != nil {
			next = o.Backoff.delays()
		}

		var made int
		for {
			attempt, ok := attempts.take()
			if !ok {
				return zero, &MaxRetriesError{Attempts: made}
			}
			made++

			ret, err := call(ctx, "retry", attempt, w, callArgs)
			if err == nil {
				return ret, nil
			}
			if ctx.Err() != nil || !o.Retryable(err) {
				return zero, err
			}
			if attempts.exhausted() {
				return zero, &MaxRetriesError{Attempts: made, Err: err}
			}

			delay := next()
			o.Logger.DebugContext(ctx, "retrying worker",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", err))
			if err := sleep(ctx, "retry wait", delay); err != nil {
				return zero, err
			}
		}
	}
}
