// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package linger

import (
	"runtime"
)

// CheckClean will record a test error if there are any invocations
// being tracked by the Recorder. A snapshot of the stack where each
// invocation was started will be written into the test log.
func CheckClean(t TestingT, r *Recorder) {
	running := r.Running()
	if len(running) == 0 {
		return
	}

	// Improve error messages if we're being called from a real test.
	if x, ok := t.(interface{ Helper() }); ok {
		x.Helper()
	}

	t.Errorf("lingering invocations detected")
	for _, e := range running {
		if e.Invocation != nil {
			t.Errorf("  stuck invocation %s started at:", e.Invocation)
		} else {
			t.Errorf("  stuck invocation started at:")
		}
		frames := runtime.CallersFrames(e.Stack)
		for {
			frame, more := frames.Next()
			t.Errorf("    %s ( %s:%d )", frame.Function, frame.File, frame.Line)
			if !more {
				break
			}
		}
	}
}

// TestingT is the subset of [testing.TB] needed by [CheckClean].
type TestingT interface {
	Errorf(string, ...any)
}
