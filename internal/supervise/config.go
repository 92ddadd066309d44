// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package supervise contains the configuration and assembly logic for
// supervising an external command with the taskctl combinators.
package supervise

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override flags.
const EnvPrefix = "TASKCTL"

// A Mode selects the combinator that supervises the command.
type Mode string

// The supported modes.
const (
	ModeRepeat      Mode = "repeat"
	ModeRestartable Mode = "restartable"
	ModeRetry       Mode = "retry"
	ModeStoppable   Mode = "stoppable"
)

// Config is the resolved configuration of a supervised run.
type Config struct {
	Config      string        `mapstructure:"config"`
	Interval    time.Duration `mapstructure:"interval"`
	LogLevel    string        `mapstructure:"log-level"`
	MaxRepeats  int           `mapstructure:"max-repeats"`
	MaxRetries  int           `mapstructure:"max-retries"`
	MetricsAddr string        `mapstructure:"metrics-addr"`
	Mode        Mode          `mapstructure:"mode"`
	NoAutoStart bool          `mapstructure:"no-auto-start"`
	NoReturn    bool          `mapstructure:"no-return"`
	RedisAddr   string        `mapstructure:"redis-addr"`
	RedisPrefix string        `mapstructure:"redis-prefix"`
	RestartOn   []string      `mapstructure:"restart-on"`
	StartOn     []string      `mapstructure:"start-on"`
	StopOn      []string      `mapstructure:"stop-on"`
}

// DefineFlags registers the flags that populate a Config.
func DefineFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "path to a YAML configuration file")
	flags.Duration("interval", time.Second, "delay between retries or repeats")
	flags.String("log-level", "info", "one of debug, info, warn, error")
	flags.Int("max-repeats", 0, "total invocations in repeat mode (0 = unbounded)")
	flags.Int("max-retries", 0, "total attempts in retry mode (0 = unbounded)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("mode", string(ModeRetry), "one of retry, repeat, restartable, stoppable")
	flags.Bool("no-auto-start", false, "wait for a signal before the first run")
	flags.Bool("no-return", false, "keep supervising after the command succeeds")
	flags.String("redis-addr", "", "share signals through this Redis server")
	flags.String("redis-prefix", "", "prefix of Redis channel names")
	flags.StringSlice("restart-on", []string{"restart"}, "signals that restart the command")
	flags.StringSlice("start-on", []string{"start"}, "signals that start the command")
	flags.StringSlice("stop-on", []string{"stop"}, "signals that stop the command")
}

// Load resolves a Config from the parsed flags, TASKCTL_* environment
// variables, and the optional configuration file, in that order of
// precedence.
func Load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors that would otherwise cause a
// combinator to panic.
func (c *Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeRestartable, ModeStoppable:
	case ModeRetry:
		if c.MaxRetries == 0 && c.Interval == 0 {
			errs = append(errs, errors.New("an unbounded retry requires an interval"))
		}
	case ModeRepeat:
		if c.MaxRepeats == 0 && c.Interval == 0 {
			errs = append(errs, errors.New("an unbounded repeat requires an interval"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Interval < 0 {
		errs = append(errs, errors.New("interval must not be negative"))
	}
	if c.MaxRepeats < 0 {
		errs = append(errs, errors.New("max-repeats must not be negative"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("max-retries must not be negative"))
	}
	if c.Mode == ModeRestartable && len(c.RestartOn) == 0 {
		errs = append(errs, errors.New("restartable mode requires restart-on"))
	}
	if c.Mode == ModeStoppable && (len(c.StartOn) == 0 || len(c.StopOn) == 0) {
		errs = append(errs, errors.New("stoppable mode requires start-on and stop-on"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log-level: %w", err)
	}
	return lvl, nil
}
