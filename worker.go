// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"runtime/trace"
	"slices"

	"vawter.tech/taskctl/internal/safe"
)

// A Worker is a unit of work wrapped by the combinators in this
// package. A Worker must return promptly once its context is canceled
// so that a combinator racing it against a signal can start the next
// invocation. Any cleanup the Worker needs should be deferred so that
// it runs on every exit path.
type Worker[R any] func(ctx context.Context, args ...any) (R, error)

// A RecoveredError is returned when a Worker invoked by a combinator
// panics.
type RecoveredError = safe.RecoveredError

// Adaptable is the set of function signatures accepted by [Fn].
type Adaptable[R any] interface {
	func() error |
		func(context.Context) error |
		func(context.Context) (R, error) |
		func(context.Context, ...any) (R, error) |
		Worker[R]
}

// Fn adapts various function signatures to a [Worker]. Signatures
// that produce no value yield the zero value of R.
func Fn[R any, A Adaptable[R]](fn A) Worker[R] {
	a := any(fn)
	switch t := a.(type) {
	case func() error:
		return func(context.Context, ...any) (R, error) {
			var zero R
			return zero, t()
		}
	case func(context.Context) error:
		return func(ctx context.Context, _ ...any) (R, error) {
			var zero R
			return zero, t(ctx)
		}
	case func(context.Context) (R, error):
		return func(ctx context.Context, _ ...any) (R, error) {
			return t(ctx)
		}
	case func(context.Context, ...any) (R, error):
		return t
	}
	return a.(Worker[R])
}

// call invokes a Worker with the arguments, recording an Invocation.
func call[R any](ctx context.Context, combinator string, attempt int, w Worker[R], args []any) (R, error) {
	return invoke(ctx, combinator, attempt, args, func(ctx context.Context) (R, error) {
		return w(ctx, args...)
	})
}

// invoke runs fn with an Invocation attached to its context. Panics
// are converted into a *RecoveredError.
func invoke[R any](
	ctx context.Context, combinator string, attempt int, args []any, fn func(context.Context) (R, error),
) (R, error) {
	ctx, traceTask := trace.NewTask(ctx, combinator)
	defer traceTask.End()

	inv := newInvocation(combinator, attempt, slices.Clone(args))
	ctx = context.WithValue(ctx, invocationKey{}, inv)

	ret, err := safe.CallRE(func() (R, error) { return fn(ctx) })
	inv.finish(err)
	return ret, err
}
