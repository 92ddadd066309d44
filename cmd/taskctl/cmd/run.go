// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"vawter.tech/taskctl"
	"vawter.tech/taskctl/internal/supervise"
	"vawter.tech/taskctl/metrics"
	"vawter.tech/taskctl/signal"
)

// localSignals maps process signals to bus signal names.
var localSignals = []struct {
	sig  os.Signal
	name string
}{
	{syscall.SIGHUP, "restart"},
	{syscall.SIGUSR1, "stop"},
	{syscall.SIGUSR2, "start"},
}

func newRunCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a command under a combinator",
		Long: `Run executes the command under the combinator selected by --mode.

Every flag may also be set with a TASKCTL_ environment variable (for
example TASKCTL_MAX_RETRIES) or in the YAML file named by --config.

The payload of the signal that started a run is exported to the command
as TASKCTL_SIGNAL, and the attempt number as TASKCTL_ATTEMPT.

Example:
  taskctl run --mode retry --max-retries 5 --interval 2s -- curl -f http://localhost/
  taskctl run --mode restartable --no-return -- ./server --port 8080`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSupervised,
	}
	supervise.DefineFlags(c.Flags())
	return c
}

func runSupervised(c *cobra.Command, args []string) error {
	cfg, err := supervise.Load(viper.New(), c.Flags())
	if err != nil {
		return err
	}
	lvl, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(c.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))

	ctx, stop := ossignal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bus signal.PubSub
	if cfg.RedisAddr != "" {
		redisBus, closeRedis := newRedisBus(cfg.RedisAddr, cfg.RedisPrefix)
		defer func() { _ = closeRedis() }()
		bus = redisBus
	} else {
		bus = signal.NewHub()
	}
	for _, s := range localSignals {
		go relay(ctx, bus, s.sig, s.name, logger)
	}

	command := &supervise.Command{
		Name:   args[0],
		Args:   args[1:],
		Stdout: c.OutOrStdout(),
		Stderr: c.ErrOrStderr(),
	}
	w := taskctl.Worker[struct{}](command.Run)

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		w = metrics.Instrument(metrics.New(reg, "taskctl"), filepath.Base(command.Name), w)

		shutdown := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer shutdown()
	}

	w, err = supervise.Build(cfg, bus, w, logger)
	if err != nil {
		return err
	}

	logger.Info("supervising command",
		slog.String("command", command.Name),
		slog.String("mode", string(cfg.Mode)))
	_, err = w(ctx)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("interrupted")
		return nil
	}
	return err
}

// relay publishes each delivery of the process signal until the
// context is canceled.
func relay(ctx context.Context, pub signal.Publisher, sig os.Signal, name string, logger *slog.Logger) {
	ch := make(chan os.Signal, 1)
	ossignal.Notify(ch, sig)
	defer ossignal.Stop(ch)

	if err := signal.Forward(ctx, pub, name, ch); err != nil && ctx.Err() == nil {
		logger.Error("could not forward signal",
			slog.String("signal", name),
			slog.Any("error", err))
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (shutdown func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
