package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"livelens/internal/media"
	"livelens/internal/pipeline"
)

func newClipCommand(cmdCtx *commandContext) *cobra.Command {
	var req pipeline.ClipRequest

	cmd := &cobra.Command{
		Use:   "clip",
		Short: "Render a highlight clip from an analyzed video",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cmdCtx.ensure()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			clipper, err := pipeline.NewClipper(cfg, media.NewFFmpeg(), logger)
			if err != nil {
				return err
			}
			dest, err := clipper.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "clip rendered: %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ClipID, "clip-id", "", "Clip identifier")
	cmd.Flags().StringVar(&req.VideoID, "video-id", "", "Source video identifier")
	cmd.Flags().StringVar(&req.BlobURL, "blob-url", "", "Source video blob URL")
	cmd.Flags().Float64Var(&req.TimeStart, "time-start", 0, "Clip start in seconds")
	cmd.Flags().Float64Var(&req.TimeEnd, "time-end", 0, "Clip end in seconds")
	cmd.Flags().IntVar(&req.PhaseIndex, "phase-index", 0, "Phase index the clip came from")
	cmd.Flags().Float64Var(&req.SpeedFactor, "speed-factor", 0, "Playback speed factor")
	_ = cmd.MarkFlagRequired("clip-id")
	_ = cmd.MarkFlagRequired("video-id")

	return cmd
}
