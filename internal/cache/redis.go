package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/hitoshi/clubboard/internal/config"
)

// NewRedisClient は設定からRedisクライアントを生成する。
// 接続は遅延確立されるため、この時点でRedisが停止していてもエラーにならない。
func NewRedisClient(cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	if cfg.Username != "" {
		opts.Username = cfg.Username
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 500 * time.Millisecond
	opts.WriteTimeout = 500 * time.Millisecond

	return redis.NewClient(opts), nil
}

// RedisCache はRedisをバックエンドとするCache実装。
// すべての操作をサーキットブレーカー越しに実行し、ブレーカーが開いている間は
// ネットワークに触れずにミス（書き込みは無操作）として扱う。
type RedisCache struct {
	rdb    *redis.Client
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewRedisCache はRedisCacheを生成する。
func NewRedisCache(rdb *redis.Client, logger *slog.Logger) *RedisCache {
	st := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// redis.Nilはキーが存在しないだけなので失敗として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("cache circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &RedisCache{
		rdb:    rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
		logger: logger,
	}
}

// Ready はRedisへの接続が利用可能とみなせる場合にtrueを返す。
func (c *RedisCache) Ready() bool {
	return c.cb.State() != gobreaker.StateOpen
}

// Get はキーの値を取得する。
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.rdb.Get(ctx, key).Result()
	})
	if err != nil {
		if errors.Is(err, redis.Nil) || isBreakerRejection(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return res.(string), true, nil
}

// Set はTTL付きで値を書き込む。
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Set(ctx, key, value, ttl).Err()
	})
	if err != nil && !isBreakerRejection(err) {
		return fmt.Errorf("redis SET %s: %w", key, err)
	}
	return nil
}

// Del は指定キーを削除する。存在しないキーは無視される。
func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, c.rdb.Del(ctx, keys...).Err()
	})
	if err != nil && !isBreakerRejection(err) {
		return fmt.Errorf("redis DEL: %w", err)
	}
	return nil
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
