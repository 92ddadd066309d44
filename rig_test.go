// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"vawter.tech/taskctl"
	"vawter.tech/taskctl/linger"
	"vawter.tech/taskctl/signal"
)

// newRig returns a signal hub and a Recorder that is checked for
// lingering invocations when the test ends.
func newRig(t *testing.T) (*signal.Hub, *linger.Recorder) {
	rec := linger.NewRecorder(4 /* depth */)
	t.Cleanup(func() { linger.CheckClean(t, rec) })
	return signal.NewHub(), rec
}

// gate is a Worker that records its arguments and blocks until it is
// released or canceled. It also records the maximum number of
// concurrent invocations.
type gate struct {
	release chan string

	running atomic.Int32
	peak    atomic.Int32

	mu struct {
		sync.Mutex
		calls [][]any
	}
}

func newGate() *gate {
	return &gate{release: make(chan string)}
}

func (p *gate) worker(rec *linger.Recorder) taskctl.Worker[string] {
	return linger.Track(rec, func(ctx context.Context, args ...any) (string, error) {
		n := p.running.Add(1)
		defer p.running.Add(-1)
		for {
			peak := p.peak.Load()
			if n <= peak || p.peak.CompareAndSwap(peak, n) {
				break
			}
		}

		p.mu.Lock()
		p.mu.calls = append(p.mu.calls, args)
		p.mu.Unlock()

		select {
		case ret := <-p.release:
			if ret == "fail" {
				return "", errBoom
			}
			return ret, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func (p *gate) calls() [][]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mu.calls
}

var errBoom = errors.New("boom")

type result[R any] struct {
	val R
	err error
}

// start calls the Worker in a new goroutine.
func start[R any](ctx context.Context, w taskctl.Worker[R], args ...any) <-chan result[R] {
	ch := make(chan result[R], 1)
	go func() {
		val, err := w(ctx, args...)
		ch <- result[R]{val, err}
	}()
	return ch
}

// failingBus is a signal.Bus whose Wait always fails.
type failingBus struct{ err error }

func (b failingBus) Wait(context.Context, ...string) (any, error) { return nil, b.err }
