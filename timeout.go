// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"runtime/trace"
	"time"
)

// Timeout suspends the caller for the duration. It returns the
// context's error immediately if the context is canceled before the
// duration elapses. Non-positive durations return at once.
func Timeout(ctx context.Context, d time.Duration) error {
	return sleep(ctx, "timeout", d)
}

func sleep(ctx context.Context, region string, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	defer trace.StartRegion(ctx, region).End()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
