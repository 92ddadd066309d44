// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package safe contains utilities for executing worker functions that
// may panic.
package safe

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const captureDepth = 32

// A RecoveredError associates a recovered panic with the stack of the
// goroutine that panicked.
type RecoveredError struct {
	Err   error
	Stack []uintptr
}

// Error implements error.
func (e *RecoveredError) Error() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "recovered: %v\n", e.Err)
	frames := runtime.CallersFrames(e.Stack)
	for {
		frame, more := frames.Next()
		_, _ = fmt.Fprintf(&sb, "%s ( %s:%d )\n", frame.Function, frame.File, frame.Line)

		if !more {
			return sb.String()
		}
	}
}

// String is for debugging use only.
func (e *RecoveredError) String() string {
	return e.Error()
}

// Unwrap returns the enclosed error.
func (e *RecoveredError) Unwrap() error { return e.Err }

// CallE executes the function. If the function panics, the recovered
// value will be joined with any error that was already returned.
func CallE(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r, err)
		}
	}()
	return fn()
}

// CallRE executes the function, returning its result. If the function
// panics, the recovered value will be added to the returned error and
// the result will be the zero value.
func CallRE[R any](fn func() (R, error)) (ret R, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero R
			ret = zero
			err = recovered(r, err)
		}
	}()
	return fn()
}

// recovered must be called directly from the deferred function so
// that the captured stack starts at the panic site.
func recovered(r any, prior error) error {
	var err error
	switch t := r.(type) {
	case error:
		err = errors.Join(prior, t)
	default:
		err = errors.Join(prior, fmt.Errorf("panic: %v", t))
	}
	stack := make([]uintptr, captureDepth)
	stack = stack[:runtime.Callers(3, stack)]
	return &RecoveredError{
		Err:   err,
		Stack: stack,
	}
}
