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

// RestartOptions configures [Restartable].
type RestartOptions struct {
	// Bus delivers restart signals. Required.
	Bus signal.Bus
	// RestartOn names the signals that restart the Worker. Required.
	RestartOn []string
	// NoAutoStart delays the first invocation until a restart signal
	// arrives.
	NoAutoStart bool
	// NoReturn keeps the combinator alive after the Worker succeeds:
	// it waits for the next restart signal and runs the Worker again.
	NoReturn bool
	// Logger defaults to [slog.Default].
	Logger *slog.Logger
}

func (o RestartOptions) sanitize() RestartOptions {
	if o.Bus == nil {
		panic(errors.New("restartable requires a signal bus"))
	}
	if len(o.RestartOn) == 0 {
		panic(errors.New("restartable requires at least one restart signal"))
	}
	o.RestartOn = slices.Clone(o.RestartOn)
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Restartable returns a Worker that restarts w from scratch whenever a
// restart signal arrives.
//
// Each invocation of w receives the bound arguments, the call
// arguments, and then the payload of the signal that started it, if
// any. A restart signal cancels the running invocation and waits for it
// to exit before the next one starts, so invocations never overlap.
//
// An error returned by w is returned to the caller. A successful result
// is returned unless [RestartOptions.NoReturn] is set, in which case
// the Worker idles until the next restart signal.
func Restartable[R any](w Worker[R], opts RestartOptions, bound ...any) Worker[R] {
	o := opts.sanitize()

	return func(ctx context.Context, args ...any) (R, error) {
		var zero R
		var actions []any
		if o.NoAutoStart {
			payload, err := await(ctx, o.Bus, o.RestartOn)
			if err != nil {
				return zero, err
			}
			actions = []any{payload}
		}

		for attempt := 1; ; attempt++ {
			callArgs := slices.Concat(bound, args, actions)
			won, err := race(ctx, o.Bus, o.RestartOn, func(ctx context.Context) (R, error) {
				return call(ctx, "restartable", attempt, w, callArgs)
			})
			if err != nil {
				return zero, err
			}

			if !won.signaled {
				if won.err != nil || !o.NoReturn {
					return won.ret, won.err
				}
				o.Logger.DebugContext(ctx, "worker finished, awaiting restart",
					slog.Any("signals", o.RestartOn))
				payload, err := await(ctx, o.Bus, o.RestartOn)
				if err != nil {
					return zero, err
				}
				won.payload = payload
			} else {
				o.Logger.DebugContext(ctx, "restarting worker",
					slog.Int("attempt", attempt),
					slog.Any("payload", won.payload))
			}
			actions = []any{won.payload}
		}
	}
}
