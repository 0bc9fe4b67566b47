// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// キャッシュ層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordCacheHit(space string)
	RecordCacheMiss(space string)
	RecordCacheError(op string)
	RecordInvalidation(keys int)
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	cacheErrors   *prometheus.CounterVec
	invalidations prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubboard_cache_hits_total",
			Help: "キー空間別のキャッシュヒット数",
		}, []string{"space"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubboard_cache_misses_total",
			Help: "キー空間別のキャッシュミス数",
		}, []string{"space"}),
		cacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubboard_cache_errors_total",
			Help: "操作別のキャッシュ障害数（ミス扱いで継続したもの）",
		}, []string{"op"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clubboard_cache_invalidated_keys_total",
			Help: "書き込みにより無効化したキャッシュキーの合計数",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clubboard_http_requests_total",
			Help: "ルート・ステータスコード別のHTTPリクエスト数",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubboard_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.cacheHits,
		c.cacheMisses,
		c.cacheErrors,
		c.invalidations,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit(space string) {
	c.cacheHits.WithLabelValues(space).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(space string) {
	c.cacheMisses.WithLabelValues(space).Inc()
}

// RecordCacheError はキャッシュ操作の失敗を記録する。opは "get" / "set" / "del" / "decode" のいずれか。
func (c *Collector) RecordCacheError(op string) {
	c.cacheErrors.WithLabelValues(op).Inc()
}

// RecordInvalidation は無効化したキー数を記録する。
func (c *Collector) RecordInvalidation(keys int) {
	c.invalidations.Add(float64(keys))
}

// RecordHTTPRequest はHTTPリクエストの結果と処理時間を記録する。
// routeにはchiのルートパターン（例: /api/users/{id}）を渡し、ラベルの爆発を防ぐ。
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
