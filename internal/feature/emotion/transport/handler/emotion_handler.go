// Package handler はemotionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis_backend/internal/api"
	"analysis_backend/internal/feature/emotion/domain/entity"
	"analysis_backend/internal/platform/http/imagereq"
)

// AnalyzeUsecase は感情分析のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type AnalyzeUsecase interface {
	Analyze(ctx context.Context, data []byte) (*entity.AnalysisResult, error)
}

// EmotionHandler は感情分析のHTTPリクエストを処理します。
type EmotionHandler struct {
	uc       AnalyzeUsecase
	resolver imagereq.ImageResolver
}

// NewEmotionHandler はEmotionHandlerの新しいインスタンスを生成します。
func NewEmotionHandler(uc AnalyzeUsecase, resolver imagereq.ImageResolver) *EmotionHandler {
	return &EmotionHandler{uc: uc, resolver: resolver}
}

// Analyze は画像内の顔の感情を分析し、平均スコアと最も強い感情を返します。
//
// エンドポイント: POST /analyze
// Content-Type: application/json（image_data または bucket + image_key）、または multipart/form-data（image）
func (h *EmotionHandler) Analyze(c *gin.Context) {
	data, err := imagereq.Read(c, h.resolver)
	if err != nil {
		imagereq.WriteError(c, err)
		return
	}

	result, err := h.uc.Analyze(c.Request.Context(), data)
	if err != nil {
		imagereq.WriteError(c, err)
		return
	}

	emotions := result.Emotions
	if emotions == nil {
		emotions = map[string]float64{}
	}
	c.JSON(http.StatusOK, api.AnalyzeResponse{
		DominantEmotion: result.DominantEmotion,
		Emotions:        emotions,
	})
}
