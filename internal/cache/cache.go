// Package cache はRDBの前段に置く読み取りキャッシュを提供する。
// キャッシュは純粋な高速化層であり、障害時はミスとして扱い、処理を継続する。
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/clubboard/internal/config"
)

// Cache はキャッシュバックエンドの最小インターフェース。
// Getは値が存在しない場合 ok=false, err=nil を返す。
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// NopCache はキャッシュ無効時の実装。常にミスを返し、書き込みは何もしない。
type NopCache struct{}

// Get は常にミスを返す。
func (NopCache) Get(context.Context, string) (string, bool, error) {
	return "", false, nil
}

// Set は何もしない。
func (NopCache) Set(context.Context, string, string, time.Duration) error {
	return nil
}

// Del は何もしない。
func (NopCache) Del(context.Context, ...string) error {
	return nil
}

// New は設定に応じてキャッシュ実装を1つ選択する。
// 戻り値のclose関数はバックエンドの接続を解放する。
func New(cfg config.CacheConfig, logger *slog.Logger) (Cache, func() error, error) {
	noop := func() error { return nil }

	if !cfg.Enabled {
		logger.Info("cache disabled")
		return NopCache{}, noop, nil
	}

	switch cfg.Driver {
	case "memory":
		logger.Info("cache enabled", slog.String("driver", "memory"), slog.Int("capacity", cfg.MemoryCapacity))
		return NewMemoryCache(cfg.MemoryCapacity), noop, nil
	case "redis", "":
		client, err := NewRedisClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("cache enabled", slog.String("driver", "redis"), slog.Bool("tls", cfg.TLS))
		return NewRedisCache(client, logger), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache driver: %q", cfg.Driver)
	}
}

// compile-time interface checks
var (
	_ Cache = NopCache{}
	_ Cache = (*RedisCache)(nil)
	_ Cache = (*MemoryCache)(nil)
)
