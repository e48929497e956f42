package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once 用来保证指标只注册一次。
	// Prometheus 的 registry 不允许重复注册同名指标，否则会直接 panic。
	once sync.Once

	// HTTPRequestsTotal：累计请求数（Counter）。
	//
	// labels：
	// - method：HTTP 方法，例如 GET/POST
	// - route：路由模板（用 pattern，例如 /t/*filepath；不要用带真实路径的 path，否则会产生无限 label）
	// - status：HTTP 状态码字符串，例如 "200"/"404"/"500"
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "HTTP请求的总数",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDurationSeconds：请求耗时分布（Histogram），用来算 P95/P99。
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency distributions.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPInflightRequests：当前正在处理中的请求数（Gauge）。
	HTTPInflightRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// CacheOperations：内容存在性缓存的命中情况。
	//
	// labels：
	// - layer：bloom / l1 / l2 / store
	// - result：hit / hit_negative / miss
	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templink_cache_operations_total",
			Help: "存在性缓存各层的命中/未命中计数",
		},
		[]string{"layer", "result"},
	)

	// FetchesTotal：上游抓取次数。result: ok / not_found / error
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templink_upstream_fetches_total",
			Help: "上游资源抓取计数",
		},
		[]string{"result"},
	)

	// LinksIssuedTotal：签发的临时链接数。
	LinksIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "templink_links_issued_total",
			Help: "签发的临时签名链接总数",
		},
	)

	// LinkVerifyFailures：签名校验失败。reason: expired / bad_signature / bad_request
	LinkVerifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "templink_link_verify_failures_total",
			Help: "签名链接校验失败计数",
		},
		[]string{"reason"},
	)

	// RedirectsTotal：/t 路径成功返回 302 的次数。
	RedirectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "templink_redirects_total",
			Help: "成功重定向到签名链接的次数",
		},
	)
)

// Init 注册指标：只允许注册一次（否则 panic: duplicate metrics collector registration）
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			HTTPInflightRequests,
			CacheOperations,
			FetchesTotal,
			LinksIssuedTotal,
			LinkVerifyFailures,
			RedirectsTotal,
		)
	})
}
