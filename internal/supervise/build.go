// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package supervise

import (
	"fmt"
	"log/slog"

	"vawter.tech/taskctl"
	"vawter.tech/taskctl/signal"
)

// Build wraps w with the combinator selected by the Config. The bus is
// only consulted by the signal-driven modes and may be nil otherwise.
func Build(
	cfg *Config, bus signal.Bus, w taskctl.Worker[struct{}], logger *slog.Logger,
) (taskctl.Worker[struct{}], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Mode {
	case ModeRetry:
		return taskctl.Retry(w, taskctl.RetryOptions{
			Interval:   cfg.Interval,
			MaxRetries: cfg.MaxRetries,
			Logger:     logger,
		}), nil

	case ModeRepeat:
		return taskctl.Repeat(w, taskctl.RepeatOptions[struct{}]{
			Interval:   cfg.Interval,
			MaxRepeats: cfg.MaxRepeats,
			OnError: func(err error) {
				logger.Warn("command failed; repeating", slog.Any("error", err))
			},
			Logger: logger,
		}), nil

	case ModeRestartable:
		if bus == nil {
			return nil, fmt.Errorf("%s mode requires a signal bus", cfg.Mode)
		}
		return taskctl.Restartable(w, taskctl.RestartOptions{
			Bus:         bus,
			RestartOn:   cfg.RestartOn,
			NoAutoStart: cfg.NoAutoStart,
			NoReturn:    cfg.NoReturn,
			Logger:      logger,
		}), nil

	case ModeStoppable:
		if bus == nil {
			return nil, fmt.Errorf("%s mode requires a signal bus", cfg.Mode)
		}
		return taskctl.Stoppable(w, taskctl.StopOptions{
			Bus:         bus,
			StartOn:     cfg.StartOn,
			StopOn:      cfg.StopOn,
			NoAutoStart: cfg.NoAutoStart,
			NoReturn:    cfg.NoReturn,
			Logger:      logger,
		}), nil

	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
	}
}
