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

// RepeatOptions configures [Repeat].
type RepeatOptions[R any] struct {
	// Interval is the fixed delay between invocations.
	Interval time.Duration
	// IntervalFunc, if set, computes the delay after every invocation.
	// It receives the most recent successful result, which is stale
	// (or the zero value) when err is non-nil. Negative values are
	// treated as zero.
	IntervalFunc func(last R, err error) time.Duration
	// MaxRepeats bounds the total number of invocations made by the
	// wrapped Worker across all of its calls. Zero means unbounded,
	// which requires a positive Interval. An unbounded loop uses
	// Interval whenever IntervalFunc yields no delay.
	MaxRepeats int
	// OnError, if set, observes each error the loop swallows.
	OnError func(error)
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

func (o RepeatOptions[R]) sanitize() RepeatOptions[R] {
	if o.Interval < 0 {
		panic(errors.New("repeat interval must not be negative"))
	}
	if o.MaxRepeats < 0 {
		panic(errors.New("max repeats must not be negative"))
	}
	if o.MaxRepeats == 0 && o.Interval == 0 {
		panic(errors.New("an unbounded repeat requires an interval"))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Repeat returns a Worker that invokes w in a loop, waiting between
// invocations, until the repeat budget is spent or the context is
// canceled.
//
// Errors returned by w do not stop the loop; they are logged at debug
// level and passed to [RepeatOptions.OnError]. There is no wait after
// the invocation that spends the budget, so a budget of n yields n
// invocations separated by n-1 waits. As with [Retry], the budget is
// shared by all calls of the returned Worker.
//
// The returned Worker yields the last successful result. It returns
// the context's error alongside that result if the loop is canceled.
func Repeat[R any](w Worker[R], opts RepeatOptions[R], bound ...any) Worker[R] {
	o := opts.sanitize()
	repeats := newBudget(o.MaxRepeats)

	return func(ctx context.Context, args ...any) (R, error) {
		callArgs := slices.Concat(bound, args)

		var last R
		for {
			attempt, ok := repeats.take()
			if !ok {
				return last, nil
			}

			ret, err := call(ctx, "repeat", attempt, w, callArgs)
			if err == nil {
				last = ret
			} else if ctxErr := ctx.Err(); ctxErr != nil {
				return last, ctxErr
			} else {
				o.Logger.DebugContext(ctx, "repeated worker failed",
					slog.Int("attempt", attempt),
					slog.Any("error", err))
				if o.OnError != nil {
					o.OnError(err)
				}
			}

			if repeats.exhausted() {
				return last, nil
			}

			delay := o.Interval
			if o.IntervalFunc != nil {
				delay = max(0, o.IntervalFunc(last, err))
				// An unbounded loop never waits less than Interval.
				if delay == 0 && o.MaxRepeats == 0 {
					delay = o.Interval
				}
			}
			if err := sleep(ctx, "repeat wait", delay); err != nil {
				return last, err
			}
		}
	}
}
