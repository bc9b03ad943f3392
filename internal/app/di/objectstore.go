package di

import (
	"context"
	"fmt"
	"log/slog"

	"analysis_backend/internal/platform/objectstore"
	"analysis_backend/internal/shared/imageinput"
)

// NewObjectStore はOBJECT_STORE_PROVIDERに応じたオブジェクトストレージを生成します。
// "none" の場合はnilを返し、bucket/image_key指定のリクエストは400になります。
func NewObjectStore(ctx context.Context) (imageinput.ObjectStore, func() error, error) {
	cfg := objectstore.LoadConfig()
	noop := func() error { return nil }

	switch cfg.Provider {
	case objectstore.ProviderNone:
		slog.Info("object storage disabled")
		return nil, noop, nil
	case objectstore.ProviderS3:
		s, err := objectstore.NewS3StoreFromConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("object storage configured", "provider", cfg.Provider, "endpoint", cfg.Endpoint, "region", cfg.Region)
		return s, noop, nil
	case objectstore.ProviderGCS:
		g, err := objectstore.NewGCSStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("object storage configured", "provider", cfg.Provider)
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported OBJECT_STORE_PROVIDER %q", cfg.Provider)
	}
}
