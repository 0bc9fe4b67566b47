package cache

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	memoryShards             = 10
	memoryEvictionPercentage = 10
	// sturdyc側のTTLは上限としてのみ使い、キーごとのTTLはmemoryEntryで管理する
	memoryMaxTTL = 24 * time.Hour
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCache はプロセス内のsturdycをバックエンドとするCache実装。
// 単一インスタンス構成でRedisを用意しない場合に使う。
type MemoryCache struct {
	client *sturdyc.Client[memoryEntry]
	now    func() time.Time
}

// NewMemoryCache はMemoryCacheを生成する。capacityが0以下の場合は10000件とする。
func NewMemoryCache(capacity int) *MemoryCache {
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryCache{
		client: sturdyc.New[memoryEntry](capacity, memoryShards, memoryMaxTTL, memoryEvictionPercentage),
		now:    time.Now,
	}
}

// Get はキーの値を取得する。期限切れのエントリはミスとして扱い削除する。
func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	entry, ok := c.client.Get(key)
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.client.Delete(key)
		return "", false, nil
	}
	return entry.value, true, nil
}

// Set はTTL付きで値を書き込む。
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 || ttl > memoryMaxTTL {
		ttl = memoryMaxTTL
	}
	c.client.Set(key, memoryEntry{value: value, expiresAt: c.now().Add(ttl)})
	return nil
}

// Del は指定キーを削除する。
func (c *MemoryCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		c.client.Delete(key)
	}
	return nil
}
