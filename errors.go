// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"errors"
	"fmt"
)

// ErrMaxRetriesExceeded matches, via [errors.Is], the error returned by
// [Retry] once its attempt budget has been used up.
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// MaxRetriesError indicates that a [Retry] Worker used all of its
// attempts. Err is the last error returned by the Worker during the
// call, and is nil if the budget had already been exhausted by an
// earlier call.
type MaxRetriesError struct {
	Attempts int // Attempts made during the failing call.
	Err      error
}

// Error implements error.
func (e *MaxRetriesError) Error() string {
	if e.Err == nil {
		return ErrMaxRetriesExceeded.Error()
	}
	return fmt.Sprintf("%v after %d attempts: %v", ErrMaxRetriesExceeded, e.Attempts, e.Err)
}

// Unwrap returns [ErrMaxRetriesExceeded] and the enclosed error.
func (e *MaxRetriesError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMaxRetriesExceeded}
	}
	return []error{ErrMaxRetriesExceeded, e.Err}
}
