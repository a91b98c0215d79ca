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
// ミドルウェア、サービス層、ワーカーから利用する。
type MetricsCollector interface {
	RecordFavoriteOp(op, result string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordProductsPurged(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	favoriteOps    *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
	productsPurged prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		favoriteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacart_favorite_ops_total",
			Help: "お気に入り操作の種別・結果別の合計数",
		}, []string{"op", "result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pharmacart_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pharmacart_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		productsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pharmacart_products_purged_total",
			Help: "クリーンアップで物理削除された商品の合計数",
		}),
	}

	reg.MustRegister(
		c.favoriteOps,
		c.httpStatus,
		c.requestLatency,
		c.productsPurged,
	)

	return c
}

// RecordFavoriteOp はお気に入り操作の結果を記録する。
func (c *Collector) RecordFavoriteOp(op, result string) {
	c.favoriteOps.WithLabelValues(op, result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordProductsPurged は物理削除された商品数を記録する。
func (c *Collector) RecordProductsPurged(count int64) {
	c.productsPurged.Add(float64(count))
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
