// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package linger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/require"
	"vawter.tech/taskctl"
)

// recordingT captures the reports made by CheckClean.
type recordingT struct {
	t       *testing.T
	reports []string
}

func (f *recordingT) Helper() {}

func (f *recordingT) Errorf(format string, args ...any) {
	f.reports = append(f.reports, fmt.Sprintf(format, args...))
	f.t.Logf(format, args...)
}

func (f *recordingT) failed() bool { return len(f.reports) > 0 }

func TestCheckCleanAfterWorkersExit(t *testing.T) {
	r := require.New(t)
	rec := NewRecorder(sampleDepth)

	w := taskctl.Repeat(Track(rec, func(context.Context, ...any) (int, error) {
		return rec.Len(), nil
	}), taskctl.RepeatOptions[int]{MaxRepeats: 3})

	last, err := w(t.Context())
	r.NoError(err)
	r.Equal(1, last) // Only the running invocation was tracked.

	report := &recordingT{t: t}
	CheckClean(report, rec)
	r.False(report.failed())
}

// TestCheckCleanReportsInvocation verifies that a Worker left running
// under a combinator is reported with its Invocation and the frames of
// the caller that started it.
func TestCheckCleanReportsInvocation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := require.New(t)
		rec := NewRecorder(16)

		release := make(chan struct{})
		w := taskctl.Retry(Track(rec, func(context.Context, ...any) (string, error) {
			<-release // Ignores cancellation.
			return "done", nil
		}), taskctl.RetryOptions{MaxRetries: 2})

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = w(t.Context(), "payload")
		}()
		synctest.Wait()

		running := rec.Running()
		r.Len(running, 1)
		inv := running[0].Invocation
		r.NotNil(inv)
		r.Equal([]any{"payload"}, inv.Args)

		report := &recordingT{t: t}
		CheckClean(report, rec)
		r.True(report.failed())
		r.Equal("lingering invocations detected", report.reports[0])
		r.Equal(fmt.Sprintf("  stuck invocation %s started at:", inv), report.reports[1])
		r.Contains(report.reports[1], "retry#1")
		r.Contains(report.reports[1], "(running)")

		frames := strings.Join(report.reports[2:], "\n")
		r.Contains(frames, "vawter.tech/taskctl.Retry")

		close(release)
		<-done
		report = &recordingT{t: t}
		CheckClean(report, rec)
		r.False(report.failed())
	})
}

// TestCheckCleanWithoutInvocation verifies the report for a Worker
// called directly, with no Invocation.
func TestCheckCleanWithoutInvocation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := require.New(t)
		rec := NewRecorder(sampleDepth)

		ctx, cancel := context.WithCancel(t.Context())
		w := Track(rec, func(ctx context.Context, _ ...any) (struct{}, error) {
			<-ctx.Done()
			return struct{}{}, ctx.Err()
		})
		go func() { _, _ = w(ctx) }()
		synctest.Wait()

		report := &recordingT{t: t}
		CheckClean(report, rec)
		r.GreaterOrEqual(len(report.reports), 3)
		r.Equal("  stuck invocation started at:", report.reports[1])

		cancel()
		synctest.Wait()
		CheckClean(t, rec)
	})
}
