// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"vawter.tech/taskctl/internal/supervise"
)

func newSignalCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "signal <name> [payload]",
		Short: "Publish a signal through Redis",
		Long: `Signal publishes a named signal to every taskctl process sharing the
Redis server. A payload that parses as JSON is sent as-is; anything else
is sent as a string.

Example:
  taskctl signal --redis-addr localhost:6379 restart '{"config":"v2"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			v := viper.New()
			if err := v.BindPFlags(c.Flags()); err != nil {
				return err
			}
			v.SetEnvPrefix(supervise.EnvPrefix)
			v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
			v.AutomaticEnv()

			addr := v.GetString("redis-addr")
			if addr == "" {
				return errors.New("--redis-addr or TASKCTL_REDIS_ADDR is required")
			}

			var payload any
			if len(args) == 2 {
				payload = parsePayload(args[1])
			}

			bus, closeRedis := newRedisBus(addr, v.GetString("redis-prefix"))
			defer func() { _ = closeRedis() }()
			return bus.Publish(c.Context(), args[0], payload)
		},
	}
	c.Flags().String("redis-addr", "", "address of the Redis server")
	c.Flags().String("redis-prefix", "", "prefix of Redis channel names")
	return c
}

func parsePayload(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}
