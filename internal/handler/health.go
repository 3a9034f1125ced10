package handler // declare the package name; contains HTTP handlers

import (
    "context"  // context carries the request deadline into the probe
    "net/http" // net/http provides status codes

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Prober runs a single liveness check against the database.  The shared
// *database.DB satisfies it.
type Prober interface {
    Probe(ctx context.Context) error
}

// HealthHandler answers the database-backed health check.
type HealthHandler struct {
    DB Prober // DB is the shared connection resource
}

// NewHealthHandler constructs a HealthHandler and panics if db is nil.
func NewHealthHandler(db Prober) *HealthHandler {
    if db == nil { // a nil prober is a wiring bug
        panic("nil prober passed to NewHealthHandler")
    }
    return &HealthHandler{DB: db}
}

// Health makes one probe attempt.  On success it returns 200 with the api and
// db status; on failure it returns 500 with the underlying error text in
// "detail".  The probe releases its session before this handler writes.
func (h *HealthHandler) Health(c echo.Context) error {
    if err := h.DB.Probe(c.Request().Context()); err != nil {
        return c.JSON(http.StatusInternalServerError, map[string]string{
            "detail": "Database connection failed: " + err.Error(),
        })
    }
    return c.JSON(http.StatusOK, map[string]string{
        "api":       "running successfully",
        "db_status": "database connection successful",
    })
}
