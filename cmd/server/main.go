package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	redisv9 "github.com/redis/go-redis/v9"

	"analysis_backend/internal/app/config"
	"analysis_backend/internal/app/di"
	"analysis_backend/internal/app/router"
	emotionhandler "analysis_backend/internal/feature/emotion/transport/handler"
	logohandler "analysis_backend/internal/feature/logodetection/transport/handler"
	"analysis_backend/internal/platform/cache"
	infradb "analysis_backend/internal/platform/db"
	"analysis_backend/internal/platform/http/handler"
	"analysis_backend/internal/platform/logging"
	infraredis "analysis_backend/internal/platform/redis"
	"analysis_backend/internal/shared/imageinput"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		slog.Info(".env not found; using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server terminated", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	// テンプレート・カスケード・分類器（読み込めない場合は起動しない）
	pipelines, err := di.NewPipelines(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize pipelines: %w", err)
	}
	defer func() {
		if err := pipelines.Close(); err != nil {
			slog.Warn("failed to release pipelines", "error", err)
		}
	}()

	// オブジェクトストレージ
	store, closeStore, err := di.NewObjectStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	defer func() { _ = closeStore() }()

	checks := map[string]handler.Pinger{}

	// Redis（任意）
	var rdb *redisv9.Client
	if rcfg := infraredis.LoadConfig(); rcfg.Enabled() {
		if tmp, err := infraredis.NewRedisClient(ctx, rcfg); err != nil {
			slog.Warn("Redis unavailable. Running without cache.")
		} else {
			rdb = tmp
			defer func() {
				if err := rdb.Close(); err != nil {
					slog.Error("failed to close Redis client", "error", err)
				}
			}()
			checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		}
	}

	// DB（任意、readinessの確認対象）
	if dcfg := infradb.LoadConfigFromEnv(); dcfg.Enabled() {
		db, err := infradb.OpenDB(dcfg, infradb.DefaultConnectTimeout)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer func() { _ = sqlDB.Close() }()
		}
		checks["database"] = infradb.NewPinger(db)
	}

	// Redisキャッシュでラップ
	analyzer := cache.NewCachingAnalyzeUsecase(rdb, cfg.CacheTTL, pipelines.Analyzer, di.AnalyzeCacheNamespace(cfg))
	detector := cache.NewCachingLogoDetectionUsecase(rdb, cfg.CacheTTL, pipelines.Detector, di.DetectCacheNamespace(cfg))

	// Handler
	resolver := imageinput.NewResolver(store)
	r := router.NewRouter(router.Handlers{
		Emotion:   emotionhandler.NewEmotionHandler(analyzer, resolver),
		Logo:      logohandler.NewLogoDetectionHandler(detector, resolver),
		Readiness: handler.NewReadiness(checks),
	}, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "classifier", cfg.EmotionClassifier)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
