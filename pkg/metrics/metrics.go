// Package metrics 提供 storefront 的 Prometheus 指标集合与暴露端点
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/storefront/pkg/logger"
)

const namespace = "storefront"

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 商品目录拉取结果，source=remote|cache
	CatalogFetchesTotal *prometheus.CounterVec
	// 远程拉取耗时
	CatalogFetchDuration prometheus.Histogram
	// 查询缓存命中
	CatalogCacheLookups *prometheus.CounterVec

	// 购物车命令
	CartCommandsTotal *prometheus.CounterVec
	// 当前会话数
	ActiveSessions prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		CatalogFetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "catalog_fetches_total",
			Help:      "Catalog fetch outcomes",
		}, []string{"source", "result"}),
		CatalogFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "catalog_fetch_duration_seconds",
			Help:      "Remote catalog fetch duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		CatalogCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog query cache lookups",
		}, []string{"result"}),

		CartCommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "cart_commands_total",
			Help:      "Cart commands handled",
		}, []string{"op", "result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: serviceName,
			Name:      "active_sessions",
			Help:      "Number of live browser sessions",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CatalogFetchesTotal,
		m.CatalogFetchDuration,
		m.CatalogCacheLookups,
		m.CartCommandsTotal,
		m.ActiveSessions,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCatalogFetch 记录一次目录拉取
func (m *Metrics) RecordCatalogFetch(source string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "error"
	}
	m.CatalogFetchesTotal.WithLabelValues(source, result).Inc()
	if source == "remote" {
		m.CatalogFetchDuration.Observe(duration.Seconds())
	}
}

// RecordCacheLookup 记录缓存命中/未命中
func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CatalogCacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CatalogCacheLookups.WithLabelValues("miss").Inc()
}

// RecordCartCommand 记录购物车命令
func (m *Metrics) RecordCartCommand(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CartCommandsTotal.WithLabelValues(op, result).Inc()
}

// SetActiveSessions 更新当前会话数
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// NewServer 创建 Prometheus HTTP 服务器，由调用方负责启动与关闭
func NewServer(port int, path string, gatherer prometheus.Gatherer) *http.Server {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Prometheus HTTP server configured", "addr", addr, "path", path)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
