// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package taskctl provides task-control combinators: functions that
// wrap a [Worker] and return a new Worker with an added control
// behavior.
//
// A Worker is an ordinary Go function that accepts a [context.Context]
// and a list of arguments. Use [Fn] to adapt other function shapes.
// Every combinator accepts bound arguments when wrapping; these are
// passed to the Worker ahead of the arguments of each call.
//
//	fetch := taskctl.Retry(fetchOnce, taskctl.RetryOptions{
//	    Interval:   time.Second,
//	    MaxRetries: 5,
//	}, "https://example.com")
//	body, err := fetch(ctx)
//
// # Retrying and repeating
//
// [Retry] re-invokes a failing Worker after a fixed [RetryOptions.Interval]
// or an exponential [Backoff], and fails with a [*MaxRetriesError] once
// its attempt budget is spent. [Repeat] invokes a Worker in a loop,
// swallowing its errors, with a fixed or result-derived interval.
//
// The budgets of both belong to the wrapped Worker rather than to an
// individual call. A Worker returned by Retry with MaxRetries of 3 will
// make at most three attempts over its whole lifetime.
//
// # Signal-driven control
//
// [Restartable] and [Stoppable] race a Worker against signals delivered
// by a [signal.Bus]. The signal package provides an in-process
// [signal.Hub]; the redisbus sub-package shares signals across
// processes. When a signal wins the race, the Worker's context is
// canceled and the combinator waits for the Worker to return before
// doing anything else. A Worker that ignores its context will therefore
// delay the restart.
//
//	hub := signal.NewHub()
//	serve := taskctl.Restartable(listen, taskctl.RestartOptions{
//	    Bus:       hub,
//	    RestartOn: []string{"reload"},
//	})
//	go serve(ctx)
//	hub.Notify("reload", newConfig) // listen(ctx, newConfig) starts
//
// The payload of the signal that started an invocation is appended to
// the Worker's arguments.
//
// # Threading state between calls
//
// [WithPreviousAction] passes the previous call's action alongside the
// current one, and [WithPreviousResponse] reports the previous
// successful result alongside the new one. The carried value is shared
// by every call of the wrapped function, including concurrent calls.
//
// # Observability
//
// Each Worker invocation made by a combinator runs under a context
// carrying an [Invocation], available through [InvocationFrom], and a
// [runtime/trace.Task] named after the combinator. Waits are annotated
// with [runtime/trace.StartRegion]. Combinators log at debug level
// through an optional [log/slog.Logger]. The metrics sub-package
// instruments Workers with Prometheus collectors, and the limit
// sub-package bounds their concurrency and rate.
//
// # Panics
//
// A Worker that panics is treated as having returned a
// [*RecoveredError], which includes the stack at the point of the
// panic.
//
// # Testing
//
// The [linger] sub-package helps tests detect Worker invocations that
// failed to exit after being canceled.
package taskctl
