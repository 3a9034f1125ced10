package handler

import (
    "errors"
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// NewErrorHandler renders every error that reaches echo as {"detail": "..."}.
// echo.HTTPError keeps its status and message; anything else becomes a 500
// without leaking the error text.
func NewErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        if werr := writeError(err, c); werr != nil {
            log.Error().Err(werr).Msg("write error response")
        }
    }
}

func writeError(err error, c echo.Context) error {
    code := http.StatusInternalServerError
    detail := http.StatusText(code)
    var he *echo.HTTPError
    if errors.As(err, &he) {
        if he.Internal != nil {
            var inner *echo.HTTPError
            if errors.As(he.Internal, &inner) {
                he = inner
            }
        }
        code = he.Code
        switch m := he.Message.(type) {
        case string:
            detail = m
        case error:
            detail = m.Error()
        case nil:
            detail = http.StatusText(code)
        default:
            detail = fmt.Sprint(m)
        }
    }

    if c.Request().Method == http.MethodHead {
        return c.NoContent(code)
    }
    return c.JSON(code, map[string]string{"detail": detail})
}
