package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Recorder はキャッシュの観測値を記録する。metrics.Collectorが実装する。
type Recorder interface {
	RecordCacheHit(space string)
	RecordCacheMiss(space string)
	RecordCacheError(op string)
	RecordInvalidation(keys int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(string)   {}
func (nopRecorder) RecordCacheMiss(string)  {}
func (nopRecorder) RecordCacheError(string) {}
func (nopRecorder) RecordInvalidation(int)  {}

// loadTimeout は共有ロード1回あたりの上限時間。
// 共有ロードは呼び出し元のキャンセルから切り離して実行するため、別途上限を設ける。
const loadTimeout = 30 * time.Second

// Entry は読み取り対象のキャッシュエントリを表す。
type Entry struct {
	Key   string
	Space string
	TTL   time.Duration
}

// ReadThrough はCacheの前にJSONシリアライズとミス時のロードをまとめる。
// 同一キーへの同時ミスはsingleflightで1回のロードにまとめる。
type ReadThrough struct {
	cache   Cache
	group   singleflight.Group
	metrics Recorder
	logger  *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64 // キーごとの無効化世代
}

// NewReadThrough はReadThroughを生成する。recorderがnilの場合は記録しない。
func NewReadThrough(c Cache, recorder Recorder, logger *slog.Logger) *ReadThrough {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReadThrough{
		cache:   c,
		metrics: recorder,
		logger:  logger,
		gens:    make(map[string]uint64),
	}
}

type loadResult[T any] struct {
	value T
	found bool
}

// Fetch はキャッシュから値を取得し、ミスの場合はloadで取得してキャッシュに書き込む。
// loadが found=false を返した場合はキャッシュに書き込まない。
// キャッシュ操作の失敗はログとメトリクスに記録し、ミスとして扱う。
//
// 同一キーのロードは複数の呼び出し元で共有されるため、呼び出し元のキャンセルから切り離し、
// loadTimeoutを上限として実行する。ctxがキャンセルされた呼び出し元だけがctx.Err()を返し、
// 他の呼び出し元は共有ロードの結果を受け取る。
func Fetch[T any](ctx context.Context, rt *ReadThrough, e Entry, load func(ctx context.Context) (T, bool, error)) (T, bool, error) {
	if v, ok := lookup[T](ctx, rt, e); ok {
		rt.metrics.RecordCacheHit(e.Space)
		return v, true, nil
	}
	rt.metrics.RecordCacheMiss(e.Space)

	ch := rt.group.DoChan(e.Key, func() (interface{}, error) {
		gen := rt.generation(e.Key)

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, found, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		// ロード中に無効化されたキーには書き込まない
		if found && rt.generation(e.Key) == gen {
			rt.store(loadCtx, e, v)
		}
		return loadResult[T]{value: v, found: found}, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		r := res.Val.(loadResult[T])
		return r.value, r.found, nil
	}
}

func (rt *ReadThrough) generation(key string) uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.gens[key]
}

func lookup[T any](ctx context.Context, rt *ReadThrough, e Entry) (T, bool) {
	var v T

	raw, ok, err := rt.cache.Get(ctx, e.Key)
	if err != nil {
		rt.metrics.RecordCacheError("get")
		rt.logger.Warn("cache get failed", slog.String("key", e.Key), slog.String("error", err.Error()))
		return v, false
	}
	if !ok {
		return v, false
	}

	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		rt.metrics.RecordCacheError("decode")
		rt.logger.Warn("cache entry could not be decoded", slog.String("key", e.Key), slog.String("error", err.Error()))
		return v, false
	}
	return v, true
}

func (rt *ReadThrough) store(ctx context.Context, e Entry, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		rt.metrics.RecordCacheError("encode")
		rt.logger.Warn("cache entry could not be encoded", slog.String("key", e.Key), slog.String("error", err.Error()))
		return
	}
	if err := rt.cache.Set(ctx, e.Key, string(data), e.TTL); err != nil {
		rt.metrics.RecordCacheError("set")
		rt.logger.Warn("cache set failed", slog.String("key", e.Key), slog.String("error", err.Error()))
	}
}

// Invalidate は指定キーを削除する。
// 進行中のロードはsingleflightから切り離すため、以降のミスは新しいロードを開始する。
// 切り離されたロードは結果を待っている呼び出し元には返すが、キャッシュには書き込まない。
// 削除の失敗はログに記録するのみで、呼び出し元には返さない。
func (rt *ReadThrough) Invalidate(ctx context.Context, keys ...string) {
	keys = dedupe(keys)
	if len(keys) == 0 {
		return
	}

	rt.mu.Lock()
	for _, key := range keys {
		rt.gens[key]++
		rt.group.Forget(key)
	}
	rt.mu.Unlock()

	if err := rt.cache.Del(ctx, keys...); err != nil {
		rt.metrics.RecordCacheError("del")
		rt.logger.Warn("cache invalidation failed",
			slog.String("keys", fmt.Sprint(keys)),
			slog.String("error", err.Error()),
		)
		return
	}
	rt.metrics.RecordInvalidation(len(keys))
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
