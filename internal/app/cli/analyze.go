package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"analysis_backend/internal/app/di"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <image|dir>...",
		Short: "Estimate the facial emotion of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}

			analyzer, closeFn, err := di.NewEmotionAnalysis(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			results, err := runBatch(cmd.Context(), files, "Analyzing", opts.progressWriter(cmd),
				func(ctx context.Context, data []byte) (result, error) {
					res, err := analyzer.Analyze(ctx, data)
					if err != nil {
						return result{}, err
					}
					return result{DominantEmotion: &res.DominantEmotion, Emotions: res.Emotions}, nil
				})
			if err != nil {
				return err
			}
			if err := writeResults(cmd.OutOrStdout(), results, opts.jsonOutput); err != nil {
				return err
			}
			if n := failed(results); n > 0 {
				return fmt.Errorf("%d of %d images failed", n, len(results))
			}
			return nil
		},
	}
}
