package middleware

import (
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/rs/zerolog"
)

// RequestID tags every request with a UUID in X-Request-Id, keeping an id
// the client already sent.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: uuid.NewString,
    })
}

// RequestLogger writes one line per request.  Errors are passed to the
// error handler first so the logged status is the one the client got.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        HandleError:  true,
        LogMethod:    true,
        LogURIPath:   true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogRemoteIP:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            ev := log.Info()
            if v.Status >= 500 {
                ev = log.Warn()
            }
            ev.Str("method", v.Method).
                Str("path", v.URIPath).
                Int("status", v.Status).
                Dur("latency", v.Latency).
                Str("request_id", v.RequestID).
                Str("remote_ip", v.RemoteIP).
                Msg("request")
            return nil
        },
    })
}
