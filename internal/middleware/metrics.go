package middleware

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request counts and latencies per route.
type Metrics struct {
    requests *prometheus.CounterVec
    duration *prometheus.HistogramVec
}

// NewMetrics registers the HTTP collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
    f := promauto.With(reg)
    return &Metrics{
        requests: f.NewCounterVec(prometheus.CounterOpts{
            Name: "http_requests_total",
            Help: "HTTP requests by method, route and status code.",
        }, []string{"method", "route", "status"}),
        duration: f.NewHistogramVec(prometheus.HistogramOpts{
            Name:    "http_request_duration_seconds",
            Help:    "HTTP request latency by method and route.",
            Buckets: prometheus.DefBuckets,
        }, []string{"method", "route"}),
    }
}

// Middleware observes every request passing through it.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)

            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            status := c.Response().Status
            if err != nil && !c.Response().Committed {
                status = http.StatusInternalServerError
                var he *echo.HTTPError
                if errors.As(err, &he) {
                    status = he.Code
                }
            }
            method := c.Request().Method
            m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
            m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
            return err
        }
    }
}
