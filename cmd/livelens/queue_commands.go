package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"livelens/internal/queue"
)

func newQueueCommand(cmdCtx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}
	queueCmd.AddCommand(newQueueListCommand(cmdCtx))
	queueCmd.AddCommand(newQueueStatusCommand(cmdCtx))
	queueCmd.AddCommand(newQueueClearCommand(cmdCtx))
	return queueCmd
}

func withQueueStore(cmdCtx *commandContext, fn func(store *queue.Store) error) error {
	cfg, _, err := cmdCtx.ensure()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newQueueListCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueueStore(cmdCtx, func(store *queue.Store) error {
				messages, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(messages) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "queue is empty")
					return nil
				}
				now := time.Now()
				rows := make([][]string, 0, len(messages))
				for _, msg := range messages {
					job, err := queue.DecodeJob(msg.Payload)
					jobKey := "(undecodable)"
					jobType := "?"
					if err == nil {
						jobKey = job.Key()
						jobType = job.Kind()
					}
					state := "visible"
					if msg.VisibleAt.After(now) {
						state = "in flight"
					}
					rows = append(rows, []string{
						msg.ID,
						jobType,
						jobKey,
						state,
						msg.EnqueuedAt.Local().Format("2006-01-02 15:04:05"),
						strconv.Itoa(msg.ReceiveCount),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Type", "Job", "State", "Enqueued", "Receives"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueStatusCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueueStore(cmdCtx, func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Total", "Visible", "In flight"},
					[][]string{{
						strconv.Itoa(stats.Total),
						strconv.Itoa(stats.Visible),
						strconv.Itoa(stats.InFlight),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueClearCommand(cmdCtx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued job",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the queue without --yes")
			}
			return withQueueStore(cmdCtx, func(store *queue.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d jobs\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing the queue")
	return cmd
}
