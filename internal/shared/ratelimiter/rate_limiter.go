package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、外部API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Wait(ctx context.Context) error
}

// RateLimiterは、固定ウィンドウ方式で操作の頻度を制限します。複数のゴルーチンから安全に使用できます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// reserve は枠を1つ確保し、実行までに待つべき時間を返します。
func (rl *RateLimiter) reserve() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたら経過したウィンドウ分だけカウントを戻す
	if elapsed := now.Sub(rl.lastReset); elapsed >= rl.interval {
		n := int(elapsed / rl.interval)
		rl.lastReset = rl.lastReset.Add(time.Duration(n) * rl.interval)
		rl.count = max(rl.count-n*rl.limit, 0)
	}

	rl.count++
	if rl.count <= rl.limit {
		return 0
	}

	// 上限を超えた分は後続のウィンドウへ繰り越す
	windows := (rl.count - 1) / rl.limit
	return rl.lastReset.Add(time.Duration(windows) * rl.interval).Sub(now)
}

// Waitはレートリミットの上限に達しているかを確認し、必要であれば待機します。
// 待機中にctxがキャンセルされた場合はctx.Err()を返します。
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limit <= 0 {
		return ctx.Err()
	}

	sleep := rl.reserve()
	if sleep <= 0 {
		return ctx.Err()
	}

	slog.Info("rate limit reached, waiting", "limit", rl.limit, "interval", rl.interval, "sleep", sleep)
	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
