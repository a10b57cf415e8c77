// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認可ガード・参加プロトコル・アナリティクスの各サービスから利用する。
type MetricsCollector interface {
	RecordAuthzOutcome(outcome string)
	RecordJoinOutcome(outcome string)
	RecordHTTPStatus(statusCode int)
	ObserveAnalyticsDuration(seconds float64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authzOutcomes     *prometheus.CounterVec
	joinOutcomes      *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
	analyticsDuration prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authzOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamdeck_authz_outcomes_total",
			Help: "認可判定の結果別の合計数 (allowed, unauthorized, forbidden)",
		}, []string{"outcome"}),
		joinOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamdeck_join_outcomes_total",
			Help: "ワークスペース参加試行の結果別の合計数 (joined, already_member, invalid_code)",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "teamdeck_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		analyticsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "teamdeck_analytics_duration_seconds",
			Help:    "プロジェクトアナリティクス集計の所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.authzOutcomes,
		c.joinOutcomes,
		c.httpStatus,
		c.analyticsDuration,
	)

	return c
}

// RecordAuthzOutcome は認可判定の結果を記録する。
func (c *Collector) RecordAuthzOutcome(outcome string) {
	c.authzOutcomes.WithLabelValues(outcome).Inc()
}

// RecordJoinOutcome はワークスペース参加試行の結果を記録する。
func (c *Collector) RecordJoinOutcome(outcome string) {
	c.joinOutcomes.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// ObserveAnalyticsDuration はアナリティクス集計の所要時間を記録する。
func (c *Collector) ObserveAnalyticsDuration(seconds float64) {
	c.analyticsDuration.Observe(seconds)
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
