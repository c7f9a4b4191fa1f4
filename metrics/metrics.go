// Package metrics 定义 Prometheus 指标：推荐耗时与结果规模、分层命中、索引加载、封面查询、HTTP 请求。
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameark_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"scene"},
	)

	RecommendResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameark_recommend_result_size",
			Help:    "Number of items returned per recommendation request",
			Buckets: []float64{0, 1, 4, 8, 12, 16, 20, 24, 50},
		},
		[]string{"scene"},
	)

	RecommendEmpty = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameark_recommend_empty_total",
			Help: "Total number of recommendation requests that degraded to an empty result",
		},
		[]string{"scene", "reason"},
	)

	TierSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameark_tier_selected_total",
			Help: "Total number of items accepted per selection tier",
		},
		[]string{"tier"},
	)

	PipelineNodeItems = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameark_pipeline_node_items",
			Help:    "Number of items emitted by a pipeline node",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"node"},
	)

	// 索引加载
	IndexLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameark_index_load_duration_seconds",
			Help:    "Duration of catalog and ratings index builds in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"index"},
	)

	IndexLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameark_index_load_errors_total",
			Help: "Total number of failed index builds",
		},
		[]string{"index"},
	)

	IndexSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gameark_index_size",
			Help: "Number of entries in the published index (games, cf items, cf users)",
		},
		[]string{"index"},
	)

	// 封面查询
	ImageLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameark_image_lookups_total",
			Help: "Total number of image lookups by outcome",
		},
		[]string{"outcome"}, // hit / miss / negative / error / invalid
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gameark_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gameark_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRecommend 记录一次推荐请求。
func RecordRecommend(scene string, duration time.Duration, size int) {
	RecommendDuration.WithLabelValues(scene).Observe(duration.Seconds())
	RecommendResultSize.WithLabelValues(scene).Observe(float64(size))
}

// RecordIndexLoad 记录一次索引构建；err 非空时只计错误。
func RecordIndexLoad(index string, duration time.Duration, size int, err error) {
	IndexLoadDuration.WithLabelValues(index).Observe(duration.Seconds())
	if err != nil {
		IndexLoadErrors.WithLabelValues(index).Inc()
		return
	}
	IndexSize.WithLabelValues(index).Set(float64(size))
}

// RecordAPIRequest 记录一次 HTTP 请求。
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
