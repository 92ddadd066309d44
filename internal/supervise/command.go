// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package supervise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"vawter.tech/taskctl"
)

// Environment variables set for the supervised command.
const (
	EnvAttempt = "TASKCTL_ATTEMPT"
	EnvSignal  = "TASKCTL_SIGNAL"
)

// DefaultWaitDelay is how long a canceled command may take to exit
// after SIGTERM before it is killed.
const DefaultWaitDelay = 10 * time.Second

// A Command runs an external program as a [taskctl.Worker].
type Command struct {
	Name   string
	Args   []string
	Stdout io.Writer // Defaults to os.Stdout.
	Stderr io.Writer // Defaults to os.Stderr.
	// WaitDelay defaults to DefaultWaitDelay.
	WaitDelay time.Duration
}

// Run executes the program once. It has the shape of a
// [taskctl.Worker].
//
// The last argument, if any, is the payload of the signal that started
// the run and is exported as TASKCTL_SIGNAL. The attempt number of the
// enclosing invocation is exported as TASKCTL_ATTEMPT. Canceling the
// context sends SIGTERM to the program.
func (c *Command) Run(ctx context.Context, args ...any) (struct{}, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = c.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	cmd.Env = os.Environ()
	if len(args) > 0 {
		cmd.Env = append(cmd.Env, EnvSignal+"="+payloadString(args[len(args)-1]))
	}
	if inv, ok := taskctl.InvocationFrom(ctx); ok && inv.Attempt > 0 {
		cmd.Env = append(cmd.Env, EnvAttempt+"="+strconv.Itoa(inv.Attempt))
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return struct{}{}, ctxErr
	}
	if exitErr := (*exec.ExitError)(nil); errors.As(err, &exitErr) {
		return struct{}{}, fmt.Errorf("%s: %w", c.Name, exitErr)
	}
	return struct{}{}, err
}

func payloadString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
