package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"analysis_backend/internal/api"
)

// readyTimeout は依存先1つあたりの疎通確認の上限時間です。
const readyTimeout = 2 * time.Second

// Pinger は依存先の疎通を確認するインターフェースです。
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc は関数をPingerとして扱うためのアダプターです。
type PingFunc func(ctx context.Context) error

// Ping はf(ctx)を呼び出します。
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Readiness は /readyz エンドポイントを処理します。
type Readiness struct {
	checks map[string]Pinger
}

// NewReadiness は名前付きの依存先を確認するReadinessを生成します。nilのPingerは無視されます。
func NewReadiness(checks map[string]Pinger) *Readiness {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &Readiness{checks: filtered}
}

// Ready は全ての依存先を並行して確認し、1つでも失敗すれば503を返します。
func (h *Readiness) Ready(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
			defer cancel()
			if err := h.checks[name].Ping(ctx); err != nil {
				slog.Warn("readiness check failed", "component", name, "error", err)
				results[i] = "unavailable"
				return
			}
			results[i] = "ok"
		}(i, name)
	}
	wg.Wait()

	resp := api.ReadinessResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for i, name := range names {
		resp.Checks[name] = results[i]
		if results[i] != "ok" {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}
