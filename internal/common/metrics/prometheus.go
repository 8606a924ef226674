// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joyrent/game-rental-backend/internal/common/errors"
)

// 分析服务调用结果
const (
	AnalyzerOutcomeNormal   = "normal"
	AnalyzerOutcomeBlocked  = "blocked"
	AnalyzerOutcomeDegraded = "degraded"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	ordersTotal          *prometheus.CounterVec
	orderRentFee         prometheus.Counter
	paymentsTotal        *prometheus.CounterVec
	paymentAmount        prometheus.Counter
	reviewsTotal         *prometheus.CounterVec
	analyzerCallsTotal   *prometheus.CounterVec
	analyzerDuration     prometheus.Histogram
}

var (
	defaultMetrics *Metrics
	initOnce       sync.Once
)

// New 在指定注册表上创建指标收集器
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "game_rental"
	}
	factory := promauto.With(reg)

	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		ordersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_total",
				Help:      "Total number of order creation attempts",
			},
			[]string{"result"},
		),
		orderRentFee: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "order_rent_fee_total",
				Help:      "Sum of rent fees of created orders",
			},
		),
		paymentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_total",
				Help:      "Total number of order payments",
			},
			[]string{"result"},
		),
		paymentAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_amount_total",
				Help:      "Sum of paid order amounts",
			},
		),
		reviewsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_total",
				Help:      "Total number of review submissions",
			},
			[]string{"result"},
		),
		analyzerCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyzer_calls_total",
				Help:      "Total number of sentiment analyzer calls by outcome",
			},
			[]string{"outcome"},
		),
		analyzerDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analyzer_call_duration_seconds",
				Help:      "Sentiment analyzer call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3, 5},
			},
		),
	}
}

// Init 在默认注册表上初始化指标收集器，重复调用返回同一实例
func Init(namespace string) *Metrics {
	initOnce.Do(func() {
		defaultMetrics = New(namespace, prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	return Init("")
}

// Middleware 返回 Gin 中间件
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 跳过 metrics 端点本身
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordOrder 记录下单结果，成功时累加租金
func (m *Metrics) RecordOrder(result string, rentFee float64) {
	m.ordersTotal.WithLabelValues(result).Inc()
	if rentFee > 0 {
		m.orderRentFee.Add(rentFee)
	}
}

// RecordPayment 记录支付结果，成功时累加支付金额
func (m *Metrics) RecordPayment(result string, amount float64) {
	m.paymentsTotal.WithLabelValues(result).Inc()
	if amount > 0 {
		m.paymentAmount.Add(amount)
	}
}

// RecordReview 记录评价提交结果
func (m *Metrics) RecordReview(result string) {
	m.reviewsTotal.WithLabelValues(result).Inc()
}

// RecordAnalyzerCall 记录情感分析调用
func (m *Metrics) RecordAnalyzerCall(outcome string, duration time.Duration) {
	m.analyzerCallsTotal.WithLabelValues(outcome).Inc()
	m.analyzerDuration.Observe(duration.Seconds())
}

// ResultLabel 将错误转换为结果标签，失败时取错误分类名
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return errors.KindOf(err).String()
}
