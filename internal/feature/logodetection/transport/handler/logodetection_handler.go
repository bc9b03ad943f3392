// Package handler はlogodetectionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"analysis_backend/internal/api"
	"analysis_backend/internal/feature/logodetection/domain/entity"
	"analysis_backend/internal/platform/http/imagereq"
)

// LogoDetectionUsecase はロゴ検出のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type LogoDetectionUsecase interface {
	Detect(ctx context.Context, data []byte) (*entity.Detection, error)
}

// LogoDetectionHandler はロゴ検出のHTTPリクエストを処理します。
type LogoDetectionHandler struct {
	uc       LogoDetectionUsecase
	resolver imagereq.ImageResolver
}

// NewLogoDetectionHandler はLogoDetectionHandlerの新しいインスタンスを生成します。
func NewLogoDetectionHandler(uc LogoDetectionUsecase, resolver imagereq.ImageResolver) *LogoDetectionHandler {
	return &LogoDetectionHandler{uc: uc, resolver: resolver}
}

// Detect は画像に参照ロゴが含まれるかを判定します。
//
// エンドポイント: POST /detect
// Content-Type: application/json（image_data または bucket + image_key）、または multipart/form-data（image）
func (h *LogoDetectionHandler) Detect(c *gin.Context) {
	data, err := imagereq.Read(c, h.resolver)
	if err != nil {
		imagereq.WriteError(c, err)
		return
	}

	det, err := h.uc.Detect(c.Request.Context(), data)
	if err != nil {
		imagereq.WriteError(c, err)
		return
	}

	slog.Debug("logo detection finished",
		"logo_detected", det.LogoDetected,
		"correlation", det.Correlation,
		"similarity", det.Similarity,
	)
	c.JSON(http.StatusOK, api.DetectResponse{LogoDetected: det.LogoDetected})
}
