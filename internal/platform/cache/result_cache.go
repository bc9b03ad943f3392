// Package cache はユースケースにRedisキャッシュを付加するデコレーターを提供します。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL はTTL未指定時のキャッシュ有効期間です。
const DefaultTTL = 10 * time.Minute

// resultCache は画像バイト列のSHA-256をキーに結果をJSONで保存します。
// rdbがnilの場合はキャッシュを経由せずcomputeを呼び出します。
type resultCache[T any] struct {
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

func newResultCache[T any](rdb *redis.Client, ttl time.Duration, namespace, defaultNamespace string) resultCache[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return resultCache[T]{rdb: rdb, ttl: ttl, namespace: safe(namespace)}
}

func (c *resultCache[T]) fetch(ctx context.Context, data []byte, compute func(context.Context, []byte) (*T, error)) (*T, error) {
	// Redis未設定の場合はキャッシュをバイパス
	if c.rdb == nil {
		return compute(ctx, data)
	}

	key := c.cacheKey(data)

	// 1) キャッシュ確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, nil
		}
		// 破損したキャッシュを削除
		slog.Warn("deleting corrupted cache entry", "key", key)
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) 実処理へフォールバック。エラーはキャッシュしない
	out, err := compute(ctx, data)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュへ保存（ベストエフォート）
	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			slog.Warn("failed to store cache entry", "key", key, "error", err)
		}
	}
	return out, nil
}

// cacheKey は namespace:sha256(data) 形式のキーを生成します。
func (c *resultCache[T]) cacheKey(data []byte) string {
	sum := sha256.Sum256(data)
	return c.namespace + ":" + hex.EncodeToString(sum[:])
}

// purge は名前空間配下のキーをSCANで列挙して削除し、削除件数を返します。
func (c *resultCache[T]) purge(ctx context.Context) (int, error) {
	if c.rdb == nil {
		return 0, nil
	}
	deleted := 0
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, c.namespace+":*", 200).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return deleted, nil
}

// safe はRedisキーで問題になる文字を置き換えます。
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
