package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HttpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	OrdersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shop_orders_total",
			Help: "Orders placed",
		},
	)
)

// InitMetrics registers the collectors with reg
func InitMetrics(reg prometheus.Registerer) {
	reg.MustRegister(HttpRequestsTotal, HttpRequestDuration, OrdersTotal)
}

func PrometheusMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			path := c.Path()
			if path == "" {
				path = "undefined"
			}

			HttpRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			HttpRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
			return err
		}
	}
}

// MetricsHandler serves the Prometheus registry to the allowed IPs only
func MetricsHandler(gatherer prometheus.Gatherer, allowedIPs []string) echo.HandlerFunc {
	allowed := make(map[string]bool, len(allowedIPs))
	for _, ip := range allowedIPs {
		allowed[ip] = true
	}
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	return func(c echo.Context) error {
		if !allowed[c.RealIP()] {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		handler.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
