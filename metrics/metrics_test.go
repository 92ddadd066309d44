// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"vawter.tech/taskctl"
)

func TestInstrument(t *testing.T) {
	r := require.New(t)
	m := New(prometheus.NewRegistry(), "test")

	errBoom := errors.New("boom")
	w := Instrument(m, "flaky", func(_ context.Context, args ...any) (int, error) {
		switch args[0] {
		case "fail":
			return 0, errBoom
		case "cancel":
			return 0, context.Canceled
		case "deadline":
			return 0, context.DeadlineExceeded
		}
		return 1, nil
	})

	for _, arg := range []string{"ok", "ok", "fail", "cancel", "deadline"} {
		_, _ = w(t.Context(), arg)
	}

	r.Equal(2.0, testutil.ToFloat64(m.Invocations.WithLabelValues("flaky", OutcomeSuccess)))
	r.Equal(1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("flaky", OutcomeFailure)))
	r.Equal(2.0, testutil.ToFloat64(m.Invocations.WithLabelValues("flaky", OutcomeCanceled)))
	r.Equal(0.0, testutil.ToFloat64(m.Inflight.WithLabelValues("flaky")))
	r.Equal(1, testutil.CollectAndCount(m.Duration))
}

func TestInstrumentInflight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := require.New(t)
		m := New(prometheus.NewRegistry(), "test")

		release := make(chan struct{})
		w := Instrument(m, "slow", func(context.Context, ...any) (struct{}, error) {
			<-release
			return struct{}{}, nil
		})

		done := make(chan struct{})
		for range 3 {
			go func() {
				_, _ = w(t.Context())
				done <- struct{}{}
			}()
		}
		synctest.Wait()
		r.Equal(3.0, testutil.ToFloat64(m.Inflight.WithLabelValues("slow")))

		time.Sleep(time.Second)
		close(release)
		for range 3 {
			<-done
		}
		r.Equal(0.0, testutil.ToFloat64(m.Inflight.WithLabelValues("slow")))
	})
}

// TestInstrumentRetry counts each attempt when the instrumented Worker
// is wrapped by Retry.
func TestInstrumentRetry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := require.New(t)
		m := New(prometheus.NewRegistry(), "test")

		failures := 2
		w := taskctl.Retry(
			Instrument(m, "retried", func(context.Context, ...any) (int, error) {
				if failures > 0 {
					failures--
					return 0, errors.New("not yet")
				}
				return 42, nil
			}),
			taskctl.RetryOptions{Interval: time.Second, MaxRetries: 5},
		)

		ret, err := w(t.Context())
		r.NoError(err)
		r.Equal(42, ret)
		r.Equal(2.0, testutil.ToFloat64(m.Invocations.WithLabelValues("retried", OutcomeFailure)))
		r.Equal(1.0, testutil.ToFloat64(m.Invocations.WithLabelValues("retried", OutcomeSuccess)))
	})
}

func TestNewDuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg, "test")
	require.Panics(t, func() { New(reg, "test") })
}
