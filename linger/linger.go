// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package linger contains a utility for reporting on Worker
// invocations that are still running, and where they were started.
package linger

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"vawter.tech/taskctl"
)

// This value is sensitive to the code structure.
const callersOffset = 3

// NewRecorder constructs a [Recorder] that samples the call stack at the
// requested depth. A depth of 1 will record the function that invoked
// the tracked Worker.
func NewRecorder(depth int) *Recorder {
	return &Recorder{depth: depth}
}

// A Recorder tracks running invocations of the Workers passed to
// [Track]. It is primarily useful in tests, to ensure that a combinator
// has not left an invocation running after it returned or after the
// invocation was canceled.
type Recorder struct {
	counter atomic.Uint64
	data    sync.Map // uint64 -> *Entry
	depth   int
}

// An Entry describes a running invocation.
type Entry struct {
	// Invocation is set if the Worker was invoked by a combinator.
	Invocation *taskctl.Invocation
	// Stack is where the Worker was invoked.
	Stack []uintptr
}

// Running returns a snapshot of the invocations that are currently
// running.
func (r *Recorder) Running() []*Entry {
	var ret []*Entry
	r.data.Range(func(_, value any) bool {
		ret = append(ret, value.(*Entry))
		return true
	})
	return ret
}

// Len returns the number of invocations that are currently running.
func (r *Recorder) Len() int {
	return len(r.Running())
}

// Track returns a Worker that records each invocation of w in the
// Recorder for as long as it runs.
func Track[R any](r *Recorder, w taskctl.Worker[R]) taskctl.Worker[R] {
	return func(ctx context.Context, args ...any) (R, error) {
		defer r.record(ctx)()
		return w(ctx, args...)
	}
}

func (r *Recorder) record(ctx context.Context) (release func()) {
	pc := make([]uintptr, r.depth)
	pc = pc[:runtime.Callers(callersOffset, pc)]

	e := &Entry{Stack: pc}
	e.Invocation, _ = taskctl.InvocationFrom(ctx)

	id := r.counter.Add(1)
	r.data.Store(id, e)
	return func() { r.data.Delete(id) }
}
