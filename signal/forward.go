// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package signal

import "context"

// Forward publishes every value received from the channel as the named
// signal. It can be used, for example, to turn [os/signal.Notify]
// deliveries into bus signals. Forward returns nil when the channel is
// closed, the context's error when the context is canceled, or the
// first error returned by the Publisher.
func Forward[T any](ctx context.Context, pub Publisher, name string, ch <-chan T) error {
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if err := pub.Publish(ctx, name, v); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
