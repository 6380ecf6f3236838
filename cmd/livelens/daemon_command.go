package main

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"livelens/internal/daemon"
	"livelens/internal/logging"
	"livelens/internal/preflight"
	"livelens/internal/queue"
	"livelens/internal/scheduler"
)

func newDaemonCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the queue-processing daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cmdCtx.ensure()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			for _, result := range preflight.Failures(preflight.RunAll(cfg)) {
				logger.Warn("preflight check failed",
					logging.String("check", result.Name),
					logging.String("detail", result.Detail))
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := queue.Open(cfg)
			if err != nil {
				return err
			}

			runner, err := scheduler.NewSubprocessRunner(
				scheduler.WithConfigPath(strings.TrimSpace(*cmdCtx.configFlag)))
			if err != nil {
				store.Close()
				return err
			}
			sched := scheduler.New(cfg, store, runner, logger)

			d, err := daemon.New(cfg, store, sched, logger)
			if err != nil {
				store.Close()
				return err
			}
			defer d.Close()

			if err := d.Start(ctx); err != nil {
				return err
			}

			api := daemon.NewAPIServer(d, logger)
			if err := api.Start(); err != nil {
				logger.Warn("status API unavailable", logging.Error(err))
			} else {
				defer api.Shutdown(context.Background()) //nolint:errcheck
			}

			<-ctx.Done()
			logger.Info("livelens daemon shutting down")
			return nil
		},
	}
}
