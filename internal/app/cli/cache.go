package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"analysis_backend/internal/platform/cache"
	infraredis "analysis_backend/internal/platform/redis"
)

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the Redis result cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached /analyze and /detect result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rcfg := infraredis.LoadConfig()
			if !rcfg.Enabled() {
				return fmt.Errorf("REDIS_HOST is not set")
			}
			rdb, err := infraredis.NewRedisClient(cmd.Context(), rcfg)
			if err != nil {
				return err
			}
			defer func() { _ = rdb.Close() }()

			analyzed, err := cache.NewCachingAnalyzeUsecase(rdb, 0, nil, "analyze").Purge(cmd.Context())
			if err != nil {
				return err
			}
			detected, err := cache.NewCachingLogoDetectionUsecase(rdb, 0, nil, "detect").Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d analyze and %d detect entries\n", analyzed, detected)
			return nil
		},
	})
	return cacheCmd
}
