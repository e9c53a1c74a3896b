package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finplan_requests_total",
			Help: "HTTP requests processed, partitioned by status code, method and route.",
		},
		[]string{"code", "method", "route"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finplan_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"code", "method", "route"},
	)
	registerOnce sync.Once
)

// RegisterMetrics 注册到默认 registry，重复调用无副作用
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(requestCount, requestDuration)
	})
}

// Metrics 记录请求数与耗时；按路由模板聚合，避免路径参数导致高基数
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		requestDuration.WithLabelValues(status, c.Request.Method, route).Observe(time.Since(start).Seconds())
		requestCount.WithLabelValues(status, c.Request.Method, route).Inc()
	}
}
