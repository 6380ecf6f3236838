package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"livelens/internal/deps"
	"livelens/internal/media"
	"livelens/internal/pipeline"
	"livelens/internal/services/embed"
	"livelens/internal/services/speech"
	"livelens/internal/services/vision"
)

func newAnalyzeCommand(cmdCtx *commandContext) *cobra.Command {
	var req pipeline.AnalyzeRequest

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one livestream recording",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := cmdCtx.ensure()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			if missing := deps.MissingRequired(deps.CheckBinaries(deps.Default())); len(missing) > 0 {
				return fmt.Errorf("missing required binaries: %v", missing)
			}

			visionClient, err := vision.NewClient(cfg.OpenAI)
			if err != nil {
				return err
			}
			speechClient, err := speech.NewClient(cfg.OpenAI)
			if err != nil {
				return err
			}
			embedClient, err := embed.NewClient(cfg.OpenAI)
			if err != nil {
				return err
			}

			analyzer, err := pipeline.NewAnalyzer(cfg, media.NewFFmpeg(),
				visionClient, speechClient, embedClient, logger)
			if err != nil {
				return err
			}
			result, err := analyzer.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %s: %d exposures, %d phases, report %s\n",
				result.VideoID, len(result.Exposures), len(result.PhaseUnits), result.ReportPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.VideoID, "video-id", "", "Video identifier")
	cmd.Flags().StringVar(&req.BlobURL, "blob-url", "", "Video blob URL")
	cmd.Flags().StringVar(&req.VideoPath, "video-path", "", "Local video file (skips the download)")
	cmd.Flags().StringVar(&req.ProductSheetURL, "product-sheet-url", "", "Product catalog spreadsheet URL")
	cmd.Flags().StringVar(&req.TrendSheetURL, "trend-sheet-url", "", "KPI trend spreadsheet URL")
	_ = cmd.MarkFlagRequired("video-id")

	return cmd
}
