package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"livelens/internal/queue"
)

func newEnqueueCommand(cmdCtx *commandContext) *cobra.Command {
	enqueueCmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue a job for the daemon",
	}
	enqueueCmd.AddCommand(newEnqueueAnalyzeCommand(cmdCtx))
	enqueueCmd.AddCommand(newEnqueueClipCommand(cmdCtx))
	return enqueueCmd
}

func enqueueJob(cmdCtx *commandContext, cmd *cobra.Command, job queue.Job) error {
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

	msg, err := store.Enqueue(cmd.Context(), job)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s (%s)\n", job.Key(), msg.ID)
	return nil
}

func newEnqueueAnalyzeCommand(cmdCtx *commandContext) *cobra.Command {
	var job queue.Job

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Queue a video analysis job",
		RunE: func(cmd *cobra.Command, args []string) error {
			job.Type = queue.JobTypeVideoAnalysis
			return enqueueJob(cmdCtx, cmd, job)
		},
	}
	cmd.Flags().StringVar(&job.VideoID, "video-id", "", "Video identifier")
	cmd.Flags().StringVar(&job.BlobURL, "blob-url", "", "Video blob URL")
	cmd.Flags().StringVar(&job.ExcelProductBlobURL, "product-sheet-url", "", "Product catalog spreadsheet URL")
	cmd.Flags().StringVar(&job.ExcelTrendBlobURL, "trend-sheet-url", "", "KPI trend spreadsheet URL")
	_ = cmd.MarkFlagRequired("video-id")
	_ = cmd.MarkFlagRequired("blob-url")
	return cmd
}

func newEnqueueClipCommand(cmdCtx *commandContext) *cobra.Command {
	var job queue.Job

	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Queue a clip generation job",
		RunE: func(cmd *cobra.Command, args []string) error {
			job.Type = queue.JobTypeGenerateClip
			return enqueueJob(cmdCtx, cmd, job)
		},
	}
	cmd.Flags().StringVar(&job.ClipID, "clip-id", "", "Clip identifier")
	cmd.Flags().StringVar(&job.VideoID, "video-id", "", "Source video identifier")
	cmd.Flags().StringVar(&job.BlobURL, "blob-url", "", "Source video blob URL")
	cmd.Flags().Float64Var(&job.TimeStart, "time-start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&job.TimeEnd, "time-end", 0, "Clip end in seconds")
	cmd.Flags().IntVar(&job.PhaseIndex, "phase-index", 0, "Phase index the clip came from")
	cmd.Flags().Float64Var(&job.SpeedFactor, "speed-factor", 0, "Playback speed factor")
	_ = cmd.MarkFlagRequired("clip-id")
	_ = cmd.MarkFlagRequired("video-id")
	return cmd
}
