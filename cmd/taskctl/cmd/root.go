// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package cmd contains the cobra commands of the taskctl binary.
package cmd

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"vawter.tech/taskctl/signal/redisbus"
)

// NewRootCommand returns the taskctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskctl",
		Short: "Supervise commands with retry, repeat, restart, and stop controls",
		Long: `taskctl runs an external command under one of the taskctl combinators.

Signals may be delivered locally (SIGHUP restarts, SIGUSR1 stops, SIGUSR2
starts) or shared between processes through Redis.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand(), newSignalCommand())
	return root
}

func newRedisBus(addr, prefix string) (*redisbus.Bus, func() error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return redisbus.New(client, prefix), client.Close
}
