// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package taskctl_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vawter.tech/taskctl"
)

type pair struct {
	action, previous string
	bound            []any
}

func TestWithPreviousAction(t *testing.T) {
	r := require.New(t)

	var seen []pair
	fn := taskctl.WithPreviousAction(
		func(_ context.Context, action, previous string, bound ...any) (string, error) {
			seen = append(seen, pair{action, previous, bound})
			return action + "<-" + previous, nil
		},
		taskctl.PreviousActionOptions[string]{Initial: "init"},
		"b1", "b2",
	)

	for _, action := range []string{"A1", "A2", "A3"} {
		_, err := fn(t.Context(), action)
		r.NoError(err)
	}
	ret, err := fn(t.Context(), "A4")
	r.NoError(err)
	r.Equal("A4<-A3", ret)

	bound := []any{"b1", "b2"}
	r.Equal([]pair{
		{"A1", "init", bound},
		{"A2", "A1", bound},
		{"A3", "A2", bound},
		{"A4", "A3", bound},
	}, seen)
}

// TestWithPreviousActionError verifies that errors are returned as-is
// and that a failed call does not become the previous action.
func TestWithPreviousActionError(t *testing.T) {
	r := require.New(t)

	var previous []int
	fn := taskctl.WithPreviousAction(
		func(_ context.Context, action, prev int, _ ...any) (int, error) {
			previous = append(previous, prev)
			if action < 0 {
				return 0, errBoom
			}
			return action, nil
		},
		taskctl.PreviousActionOptions[int]{},
	)

	_, err := fn(t.Context(), 1)
	r.NoError(err)
	_, err = fn(t.Context(), -1)
	r.ErrorIs(err, errBoom)
	_, err = fn(t.Context(), 2)
	r.NoError(err)
	r.Equal([]int{0, 1, 1}, previous)
}

// TestWithPreviousActionDetached verifies that NoReturn hands the Worker
// to the Spawner, returns immediately, and records the action at once.
func TestWithPreviousActionDetached(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		r := require.New(t)

		var group taskctl.Group
		release := make(chan struct{})
		var mu sync.Mutex
		var seen []pair
		var ctxErrs []error
		fn := taskctl.WithPreviousAction(
			func(ctx context.Context, action, previous string, _ ...any) (struct{}, error) {
				<-release
				mu.Lock()
				seen = append(seen, pair{action: action, previous: previous})
				ctxErrs = append(ctxErrs, ctx.Err())
				mu.Unlock()
				if action == "A2" {
					return struct{}{}, errBoom
				}
				return struct{}{}, nil
			},
			taskctl.PreviousActionOptions[string]{Initial: "init", NoReturn: true, Spawner: &group},
		)

		ctx, cancel := context.WithCancel(t.Context())
		for _, action := range []string{"A1", "A2", "A3"} {
			_, err := fn(ctx, action)
			r.NoError(err)
		}
		cancel()

		// None of the invocations has run yet, but the chain of previous
		// actions was recorded as each call returned.
		synctest.Wait()
		mu.Lock()
		r.Empty(seen)
		mu.Unlock()

		close(release)
		r.ErrorIs(group.Wait(), errBoom)
		r.ElementsMatch([]pair{
			{action: "A1", previous: "init"},
			{action: "A2", previous: "A1"},
			{action: "A3", previous: "A2"},
		}, seen)
		// The caller's cancellation does not reach detached work.
		r.Equal([]error{nil, nil, nil}, ctxErrs)
	})
}

// TestWithPreviousActionShared verifies that concurrent calls share a
// single previous action.
func TestWithPreviousActionShared(t *testing.T) {
	r := require.New(t)

	fn := taskctl.WithPreviousAction(
		func(_ context.Context, action, previous int, _ ...any) (int, error) {
			return previous, nil
		},
		taskctl.PreviousActionOptions[int]{Initial: -1},
	)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			_, err := fn(t.Context(), i)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	// The next caller sees whichever action was recorded last.
	prev, err := fn(t.Context(), 100)
	r.NoError(err)
	r.GreaterOrEqual(prev, 0)
	r.Less(prev, 50)
}

func TestWithPreviousResponse(t *testing.T) {
	r := require.New(t)

	n := 0
	fn := taskctl.WithPreviousResponse(
		func(_ context.Context, args ...any) (string, error) {
			n++
			return fmt.Sprintf("R%d%v", n, args), nil
		},
		taskctl.PreviousResponseOptions[string]{Initial: "initial"},
		"bound",
	)

	var got []taskctl.Response[string]
	for range 3 {
		res, err := fn(t.Context(), "call")
		r.NoError(err)
		got = append(got, res)
	}
	r.Equal([]taskctl.Response[string]{
		{Prev: "initial", Next: "R1[bound call]"},
		{Prev: "R1[bound call]", Next: "R2[bound call]"},
		{Prev: "R2[bound call]", Next: "R3[bound call]"},
	}, got)
}

func TestWithPreviousResponseError(t *testing.T) {
	r := require.New(t)

	calls := 0
	fn := taskctl.WithPreviousResponse(
		func(context.Context, ...any) (int, error) {
			calls++
			if calls == 2 {
				return 0, errBoom
			}
			return calls, nil
		},
		taskctl.PreviousResponseOptions[int]{},
	)

	res, err := fn(t.Context())
	r.NoError(err)
	r.Equal(taskctl.Response[int]{Prev: 0, Next: 1}, res)

	_, err = fn(t.Context())
	r.ErrorIs(err, errBoom)

	res, err = fn(t.Context())
	r.NoError(err)
	r.Equal(taskctl.Response[int]{Prev: 1, Next: 3}, res)
}
