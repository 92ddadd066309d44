// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type invocationKey struct{}

// An Invocation describes a single call of a [Worker] made by one of
// the combinators. Workers can retrieve it via [InvocationFrom], for
// example to log the attempt number or to correlate a restarted run
// with the signal that triggered it.
type Invocation struct {
	Args       []any                 // Bound, call, and signal arguments, in order.
	Attempt    int                   // 1-based, per wrapped instance where the combinator counts.
	Combinator string                // e.g. "retry" or "restartable".
	Error      atomic.Pointer[error] // Nil while running.
	ID         uuid.UUID             // Unique per invocation.
	Started    time.Time
}

func newInvocation(combinator string, attempt int, args []any) *Invocation {
	return &Invocation{
		Args:       args,
		Attempt:    attempt,
		Combinator: combinator,
		ID:         uuid.New(),
		Started:    time.Now(),
	}
}

// InvocationFrom returns the [Invocation] associated with the context,
// or false if the context was not created by a combinator.
func InvocationFrom(ctx context.Context) (*Invocation, bool) {
	found, ok := ctx.Value(invocationKey{}).(*Invocation)
	return found, ok
}

func (i *Invocation) finish(err error) {
	i.Error.Store(&err)
}

// MarshalJSON summarizes the Invocation. Arguments are omitted since
// they are not guaranteed to be serializable.
func (i *Invocation) MarshalJSON() ([]byte, error) {
	p := struct {
		Attempt    int       `json:"attempt,omitzero"`
		Combinator string    `json:"combinator,omitzero"`
		Error      string    `json:"error,omitzero"`
		ID         string    `json:"id"`
		Started    time.Time `json:"started,omitzero"`
		State      string    `json:"state"`
	}{
		Attempt:    i.Attempt,
		Combinator: i.Combinator,
		ID:         i.ID.String(),
		Started:    i.Started,
		State:      i.state(),
	}
	if ptr := i.Error.Load(); ptr != nil && *ptr != nil {
		p.Error = (*ptr).Error()
	}
	return json.Marshal(p)
}

// String is for debugging use only.
func (i *Invocation) String() string {
	state := i.state()
	if ptr := i.Error.Load(); ptr != nil && *ptr != nil {
		state = fmt.Sprintf("failed %v", *ptr)
	}
	return fmt.Sprintf("%s#%d %s (started %s) (%s)",
		i.Combinator, i.Attempt, i.ID, i.Started, state)
}

func (i *Invocation) state() string {
	if ptr := i.Error.Load(); ptr == nil {
		return "running"
	} else if *ptr == nil {
		return "success"
	}
	return "failed"
}
