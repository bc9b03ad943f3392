// Package throttled は感情分類器の呼び出し頻度を制限するデコレーターを提供します。
package throttled

import (
	"context"
	"fmt"
	"image"

	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/feature/emotion/usecase"
	"analysis_backend/internal/shared/apperr"
	"analysis_backend/internal/shared/ratelimiter"
)

// ThrottledClassifier は外部の分類APIを呼び出す前にレートリミッターで待機します。
type ThrottledClassifier struct {
	inner   usecase.EmotionClassifier
	limiter ratelimiter.RateLimiterInterface
}

// ThrottledClassifierがEmotionClassifierを実装していることをコンパイル時に検証します。
var _ usecase.EmotionClassifier = (*ThrottledClassifier)(nil)

// NewThrottledClassifier は新しいThrottledClassifierを生成します。
func NewThrottledClassifier(inner usecase.EmotionClassifier, limiter ratelimiter.RateLimiterInterface) *ThrottledClassifier {
	return &ThrottledClassifier{inner: inner, limiter: limiter}
}

// Classify は枠が空くまで待機してから内側の分類器に委譲します。
func (t *ThrottledClassifier) Classify(ctx context.Context, face image.Image) ([]entity.FaceEmotion, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit: %v: %w", err, apperr.ErrClassification)
	}
	return t.inner.Classify(ctx, face)
}
