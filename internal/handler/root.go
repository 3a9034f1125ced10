package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Root returns the fixed welcome payload.  It touches no dependencies.
func Root(c echo.Context) error {
    return c.JSON(http.StatusOK, map[string]string{
        "root": "welcome to Free-Flow SafeCollab API",
    })
}
