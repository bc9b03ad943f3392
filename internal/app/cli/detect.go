package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"analysis_backend/internal/app/di"
)

func newDetectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <image|dir>...",
		Short: "Check whether images contain the reference logo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := collectFiles(args)
			if err != nil {
				return err
			}

			detector, closeFn, err := di.NewLogoDetection(opts.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			results, err := runBatch(cmd.Context(), files, "Detecting", opts.progressWriter(cmd),
				func(ctx context.Context, data []byte) (result, error) {
					det, err := detector.Detect(ctx, data)
					if err != nil {
						return result{}, err
					}
					r := result{LogoDetected: &det.LogoDetected, Correlation: &det.Correlation}
					if det.Similarity > 0 {
						r.Similarity = &det.Similarity
					}
					return r, nil
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
