// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"math/rand/v2"
	"time"
)

// Backoff computes exponentially increasing delays with jitter. It may
// be used in place of a fixed [RetryOptions.Interval].
type Backoff struct {
	Jitter     time.Duration // Delays are adjusted ±50% of this value. Default is 0.
	MaxDelay   time.Duration // Defaults to 1s if unset.
	MinDelay   time.Duration // Defaults to 10ms if unset.
	Multiplier float32       // Defaults to 10.0 if unset.
}

// delays returns a function that yields the next delay each time it
// is called. The state is private to the returned function.
func (b *Backoff) delays() func() time.Duration {
	b = b.sanitize() // Shadowing receiver.
	var delay time.Duration
	return func() time.Duration {
		next := time.Duration(float32(delay) * b.Multiplier)
		delay = min(max(b.MinDelay, next), b.MaxDelay)
		jitter := time.Duration((rand.Float32() - 0.5) * float32(b.Jitter))
		return max(0, delay+jitter)
	}
}

// sanitize returns a copy with all fields initialized to a reasonable default.
func (b *Backoff) sanitize() *Backoff {
	ret := *b
	// Jitter defaults to 0.
	if ret.MaxDelay == 0 {
		ret.MaxDelay = 1 * time.Second
	}
	if ret.MinDelay == 0 {
		ret.MinDelay = 10 * time.Millisecond
	}
	if ret.Multiplier == 0 {
		ret.Multiplier = 10
	}
	return &ret
}
