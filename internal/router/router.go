package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/freeflow/safecollab-api/internal/handler"
)

// RegisterRoutes mounts the public API: the root greeting and the
// database-backed health check.  Neither requires authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/", handler.Root)
	e.GET("/health", h.Health)
}

// RegisterMetrics exposes the collectors gathered by g at /metrics.
func RegisterMetrics(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}
