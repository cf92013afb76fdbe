package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cocreate"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Current number of open WebSocket connections.",
		},
	)

	ordersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders placed.",
		},
	)

	alertMatches = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_matches_total",
			Help:      "Total number of new alert notifications recorded.",
		},
	)

	disputesResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disputes_resolved_total",
			Help:      "Total number of disputes resolved by outcome.",
		},
		[]string{"outcome"},
	)

	digestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alert_digest_runs_total",
			Help:      "Total number of alert digest runs.",
		},
		[]string{"frequency", "success"},
	)

	digestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "alert_digest_duration_seconds",
			Help:      "Duration of alert digest runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"frequency"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		wsConnections,
		ordersCreated,
		alertMatches,
		disputesResolved,
		digestRuns,
		digestDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware собирает HTTP метрики по шаблону маршрута, чтобы UUID не раздували кардинальность.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		httpRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// WSConnected сдвигает счётчик открытых сокетов на delta.
func WSConnected(delta int) {
	wsConnections.Add(float64(delta))
}

// OrderCreated учитывает оформленный заказ.
func OrderCreated() {
	ordersCreated.Inc()
}

// AlertMatched учитывает новое совпадение алерта.
func AlertMatched() {
	alertMatches.Inc()
}

// DisputeResolved учитывает решение спора.
func DisputeResolved(outcome string) {
	disputesResolved.WithLabelValues(outcome).Inc()
}

// RecordDigestRun records metrics for alert digest job runs.
func RecordDigestRun(frequency string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	digestRuns.WithLabelValues(frequency, strconv.FormatBool(success)).Inc()
	digestDuration.WithLabelValues(frequency).Observe(duration.Seconds())
}
