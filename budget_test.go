// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBudgetBounded(t *testing.T) {
	r := require.New(t)
	b := newBudget(2)

	r.False(b.exhausted())
	attempt, ok := b.take()
	r.True(ok)
	r.Equal(1, attempt)
	attempt, ok = b.take()
	r.True(ok)
	r.Equal(2, attempt)
	r.True(b.exhausted())

	_, ok = b.take()
	r.False(ok)
	r.True(b.exhausted())
}

func TestBudgetUnbounded(t *testing.T) {
	r := require.New(t)
	b := newBudget(0)
	for i := range 1000 {
		attempt, ok := b.take()
		r.True(ok)
		r.Equal(i+1, attempt)
	}
	r.False(b.exhausted())
}

func TestBudgetConcurrent(t *testing.T) {
	r := require.New(t)
	b := newBudget(10)

	var mu sync.Mutex
	taken := 0
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			if _, ok := b.take(); ok {
				mu.Lock()
				taken++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	r.Equal(10, taken)
}
