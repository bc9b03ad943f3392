package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	emotionentity "analysis_backend/internal/feature/emotion/domain/entity"
	logoentity "analysis_backend/internal/feature/logodetection/domain/entity"
)

// Analyzer は感情分析ユースケースのインターフェースです。
type Analyzer interface {
	Analyze(ctx context.Context, data []byte) (*emotionentity.AnalysisResult, error)
}

// Detector はロゴ検出ユースケースのインターフェースです。
type Detector interface {
	Detect(ctx context.Context, data []byte) (*logoentity.Detection, error)
}

// CachingAnalyzeUsecase はAnalyzerにRedisキャッシュを付加するデコレーターです。
type CachingAnalyzeUsecase struct {
	inner Analyzer
	cache resultCache[emotionentity.AnalysisResult]
}

// NewCachingAnalyzeUsecase はAnalyzerをRedisキャッシュでデコレートします。
// ttlが0以下の場合は10分、namespaceが空の場合は"analyze"を使用します。
func NewCachingAnalyzeUsecase(rdb *redis.Client, ttl time.Duration, inner Analyzer, namespace string) *CachingAnalyzeUsecase {
	return &CachingAnalyzeUsecase{
		inner: inner,
		cache: newResultCache[emotionentity.AnalysisResult](rdb, ttl, namespace, "analyze"),
	}
}

// Analyze は同一画像の結果をキャッシュから返し、無ければ内部のユースケースを実行します。
func (c *CachingAnalyzeUsecase) Analyze(ctx context.Context, data []byte) (*emotionentity.AnalysisResult, error) {
	return c.cache.fetch(ctx, data, c.inner.Analyze)
}

// Purge は感情分析のキャッシュを全て削除します。
func (c *CachingAnalyzeUsecase) Purge(ctx context.Context) (int, error) {
	return c.cache.purge(ctx)
}

// CachingLogoDetectionUsecase はDetectorにRedisキャッシュを付加するデコレーターです。
type CachingLogoDetectionUsecase struct {
	inner Detector
	cache resultCache[logoentity.Detection]
}

// NewCachingLogoDetectionUsecase はDetectorをRedisキャッシュでデコレートします。
// ttlが0以下の場合は10分、namespaceが空の場合は"detect"を使用します。
func NewCachingLogoDetectionUsecase(rdb *redis.Client, ttl time.Duration, inner Detector, namespace string) *CachingLogoDetectionUsecase {
	return &CachingLogoDetectionUsecase{
		inner: inner,
		cache: newResultCache[logoentity.Detection](rdb, ttl, namespace, "detect"),
	}
}

// Detect は同一画像の判定結果をキャッシュから返し、無ければ内部のユースケースを実行します。
func (c *CachingLogoDetectionUsecase) Detect(ctx context.Context, data []byte) (*logoentity.Detection, error) {
	return c.cache.fetch(ctx, data, c.inner.Detect)
}

// Purge はロゴ検出のキャッシュを全て削除します。
func (c *CachingLogoDetectionUsecase) Purge(ctx context.Context) (int, error) {
	return c.cache.purge(ctx)
}
