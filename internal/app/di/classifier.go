// Package di はアプリケーションの構成要素を組み立てるファクトリを提供します。
package di

import (
	"context"
	"fmt"
	"time"

	"analysis_backend/internal/app/config"
	"analysis_backend/internal/feature/emotion/adapters/cloudvision"
	"analysis_backend/internal/feature/emotion/adapters/deepface"
	"analysis_backend/internal/feature/emotion/adapters/gemini"
	"analysis_backend/internal/feature/emotion/adapters/onnx"
	"analysis_backend/internal/feature/emotion/adapters/throttled"
	"analysis_backend/internal/feature/emotion/usecase"
	infrahttp "analysis_backend/internal/platform/http"
	"analysis_backend/internal/shared/ratelimiter"
)

// NewEmotionClassifier は設定されたバックエンドの感情分類器を生成します。
// EmotionRateLimitが正の場合はレートリミッターでラップします。返されるcloseFnは常に呼び出し可能です。
func NewEmotionClassifier(ctx context.Context, cfg config.Config) (usecase.EmotionClassifier, func() error, error) {
	var (
		c       usecase.EmotionClassifier
		closeFn = func() error { return nil }
	)

	switch cfg.EmotionClassifier {
	case config.ClassifierDeepFace:
		dcfg := deepface.LoadConfig()
		c = deepface.NewDeepFaceClassifier(dcfg, infrahttp.NewHTTPClient(dcfg.Timeout))
	case config.ClassifierVision:
		v, err := cloudvision.NewVisionEmotionClassifier(ctx)
		if err != nil {
			return nil, nil, err
		}
		c, closeFn = v, v.Close
	case config.ClassifierGemini:
		g, err := gemini.NewGeminiEmotionClassifier(ctx)
		if err != nil {
			return nil, nil, err
		}
		c = g
	case config.ClassifierONNX:
		o, err := onnx.NewFERPlusClassifier(onnx.LoadConfig())
		if err != nil {
			return nil, nil, err
		}
		c, closeFn = o, o.Close
	default:
		return nil, nil, fmt.Errorf("unsupported emotion classifier %q", cfg.EmotionClassifier)
	}

	if cfg.EmotionRateLimit > 0 {
		c = throttled.NewThrottledClassifier(c, ratelimiter.NewRateLimiter(cfg.EmotionRateLimit, time.Minute))
	}
	return c, closeFn, nil
}
