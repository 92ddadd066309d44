// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"fmt"
	"sync"

	"vawter.tech/taskctl/signal"
)

// An outcome reports which side of a race settled first.
type outcome[R any] struct {
	signaled bool
	payload  any // Set if signaled.
	ret      R   // Set if the worker won.
	err      error
}

// race runs the worker against the next occurrence of any named signal.
// Interest in the signals is registered before the worker starts, so a
// signal the worker triggers itself is not missed on a bus that
// implements [signal.Subscriber]. The losing side is canceled and race
// does not return until it has exited, so a worker never outlives the
// race that started it. An error is returned only if the bus fails or
// ctx is canceled.
func race[R any](
	ctx context.Context, bus signal.Bus, names []string, run func(context.Context) (R, error),
) (outcome[R], error) {
	var won outcome[R]
	sub, err := signal.Subscribe(ctx, bus, names...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return won, ctxErr
		}
		return won, fmt.Errorf("waiting for %v: %w", names, err)
	}
	defer func() { _ = sub.Close() }()

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerDone := make(chan outcome[R], 1)
	signalDone := make(chan outcome[R], 1)

	var wg sync.WaitGroup
	wg.Go(func() {
		ret, err := run(raceCtx)
		workerDone <- outcome[R]{ret: ret, err: err}
	})
	wg.Go(func() {
		payload, err := sub.Next(raceCtx)
		signalDone <- outcome[R]{signaled: true, payload: payload, err: err}
	})

	select {
	case won = <-workerDone:
	case won = <-signalDone:
	}
	cancel()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return won, err
	}
	if won.signaled && won.err != nil {
		return won, fmt.Errorf("waiting for %v: %w", names, won.err)
	}
	return won, nil
}

// await blocks until the next occurrence of any named signal.
func await(ctx context.Context, bus signal.Bus, names []string) (any, error) {
	payload, err := bus.Wait(ctx, names...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("waiting for %v: %w", names, err)
	}
	return payload, nil
}
