package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
)

const ctxLogger = "logger"

// ContextLogger stores log, tagged with the request id, in the echo
// context for handlers.  Install it after echo's RequestID middleware.
func ContextLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := log
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				l = log.With("request_id", rid)
			}
			c.Set(ctxLogger, l)
			return next(c)
		}
	}
}

// Logger returns the request logger set by ContextLogger, falling back to
// slog's default logger.
func Logger(c echo.Context) *slog.Logger {
	if l, ok := c.Get(ctxLogger).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
