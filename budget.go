// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import "sync"

// A budget is an attempt counter owned by a wrapped Worker. It is
// shared by every call of that Worker and is never replenished.
type budget struct {
	limit int // Zero means unbounded.

	mu struct {
		sync.Mutex
		used int
	}
}

func newBudget(limit int) *budget {
	return &budget{limit: limit}
}

// take consumes one attempt and returns its 1-based ordinal.
func (b *budget) take() (attempt int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && b.mu.used >= b.limit {
		return b.mu.used, false
	}
	b.mu.used++
	return b.mu.used, true
}

func (b *budget) exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.limit > 0 && b.mu.used >= b.limit
}
