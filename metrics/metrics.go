// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package metrics instruments a [taskctl.Worker] with Prometheus
// collectors.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"vawter.tech/taskctl"
)

// Outcome label values.
const (
	OutcomeCanceled = "canceled"
	OutcomeFailure  = "failure"
	OutcomeSuccess  = "success"
)

// Metrics holds the collectors shared by instrumented Workers. The
// worker label distinguishes each instrumented Worker.
type Metrics struct {
	Duration    *prometheus.HistogramVec
	Inflight    *prometheus.GaugeVec
	Invocations *prometheus.CounterVec
}

// New constructs the collectors and registers them with reg. It panics
// if the collectors are already registered.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "invocation_duration_seconds",
				Help:      "Worker invocation duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"worker"},
		),
		Inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inflight",
				Help:      "Number of Worker invocations currently running.",
			},
			[]string{"worker"},
		),
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invocations_total",
				Help:      "Worker invocations by outcome.",
			},
			[]string{"worker", "outcome"}, // success | failure | canceled
		),
	}
	reg.MustRegister(m.Duration, m.Inflight, m.Invocations)
	return m
}

// Instrument returns a Worker that records each invocation of w under
// the given worker name.
func Instrument[R any](m *Metrics, name string, w taskctl.Worker[R]) taskctl.Worker[R] {
	duration := m.Duration.WithLabelValues(name)
	inflight := m.Inflight.WithLabelValues(name)
	return func(ctx context.Context, args ...any) (R, error) {
		inflight.Inc()
		start := time.Now()
		defer func() {
			inflight.Dec()
			duration.Observe(time.Since(start).Seconds())
		}()

		ret, err := w(ctx, args...)
		m.Invocations.WithLabelValues(name, outcome(err)).Inc()
		return ret, err
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailure
	}
}
