// Package metrics holds the Prometheus collectors of the service and the
// Echo middleware that feeds the HTTP ones.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menu"

var (
	// HTTPRequests counts handled requests by route template and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration records request latency in seconds.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// LoginAttempts counts logins by outcome: success, invalid, error.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AuthzDenials counts authorization denials by reason.
	AuthzDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_denials_total",
			Help:      "Total number of denied authorization decisions",
		},
		[]string{"reason"},
	)

	// EventsPublished counts catalog events by outcome: ok, error.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_events_published_total",
			Help:      "Total number of catalog change events handed to the broker",
		},
		[]string{"outcome"},
	)
)

// Middleware records request count and latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// the error has not been rendered yet
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			method := c.Request().Method
			path := c.Path()
			code := strconv.Itoa(status)

			HTTPRequests.WithLabelValues(method, path, code).Inc()
			HTTPDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
