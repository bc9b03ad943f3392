// Package router はHTTPルーティングを定義します。
package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	emotionhandler "analysis_backend/internal/feature/emotion/transport/handler"
	logohandler "analysis_backend/internal/feature/logodetection/transport/handler"
	"analysis_backend/internal/platform/http/handler"
)

// Handlers はルーターに登録するハンドラーの集合です。
type Handlers struct {
	Emotion   *emotionhandler.EmotionHandler
	Logo      *logohandler.LogoDetectionHandler
	Readiness *handler.Readiness
}

// NewRouter はgin.Engineを生成し、全てのエンドポイントを登録します。
// corsOriginsが空の場合、CORSミドルウェアは追加しません。
func NewRouter(h Handlers, corsOrigins []string) *gin.Engine {
	r := gin.Default()

	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  corsOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}))
	}

	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/readyz", h.Readiness.Ready)

	// 画像解析
	r.POST("/analyze", h.Emotion.Analyze)
	r.POST("/detect", h.Logo.Detect)

	return r
}
