// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"vawter.tech/taskctl/signal"
)

// StopOptions configures [Stoppable].
type StopOptions struct {
	// Bus delivers start and stop signals. Required.
	Bus signal.Bus
	// StartOn names the signals that (re)start the Worker. Required.
	StartOn []string
	// StopOn names the signals that stop the Worker. Required.
	StopOn []string
	// NoAutoStart delays the first invocation until a start signal
	// arrives.
	NoAutoStart bool
	// NoReturn keeps the combinator alive after the Worker succeeds:
	// it waits for the next start signal and runs the Worker again.
	NoReturn bool
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

func (o StopOptions) sanitize() StopOptions {
	if o.Bus == nil {
		panic(errors.New("stoppable requires a signal bus"))
	}
	if len(o.StartOn) == 0 || len(o.StopOn) == 0 {
		panic(errors.New("stoppable requires start and stop signals"))
	}
	o.StartOn = slices.Clone(o.StartOn)
	o.StopOn = slices.Clone(o.StopOn)
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Stoppable returns a Worker that runs w until a stop signal arrives,
// then stays idle until a start signal arrives and runs w again.
//
// Each invocation of w receives the bound arguments, the call
// arguments, and then the payload of the start signal that started it,
// if any. Stop payloads are never passed to w. A stop signal cancels
// the running invocation and waits for it to exit, so w never runs
// between a stop and the following start.
//
// An error returned by w is returned to the caller. A successful result
// is returned unless [StopOptions.NoReturn] is set, in which case the
// Worker idles until the next start signal.
func Stoppable[R any](w Worker[R], opts StopOptions, bound ...any) Worker[R] {
	o := opts.sanitize()

	return func(ctx context.Context, args ...any) (R, error) {
		var zero R
		var actions []any
		if o.NoAutoStart {
			payload, err := await(ctx, o.Bus, o.StartOn)
			if err != nil {
				return zero, err
			}
			actions = []any{payload}
		}

		for attempt := 1; ; attempt++ {
			callArgs := slices.Concat(bound, args, actions)
			won, err := race(ctx, o.Bus, o.StopOn, func(ctx context.Context) (R, error) {
				return call(ctx, "stoppable", attempt, w, callArgs)
			})
			if err != nil {
				return zero, err
			}

			if !won.signaled && (won.err != nil || !o.NoReturn) {
				return won.ret, won.err
			}
			if won.signaled {
				o.Logger.DebugContext(ctx, "worker stopped",
					slog.Int("attempt", attempt),
					slog.Any("payload", won.payload))
			}

			payload, err := await(ctx, o.Bus, o.StartOn)
			if err != nil {
				return zero, err
			}
			o.Logger.DebugContext(ctx, "starting worker", slog.Any("payload", payload))
			actions = []any{payload}
		}
	}
}
