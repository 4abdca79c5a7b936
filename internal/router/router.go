package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/seat-booking-core/internal/handler"
	"github.com/iliyamo/seat-booking-core/internal/middleware"
)

// NewEcho builds the echo instance with the validator, panic recovery,
// request ids, the request-scoped logger and request logging installed.
func NewEcho(log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.ContextLogger(log))
	e.Use(middleware.RequestLogger(log))
	return e
}

// RegisterPublic registers routes that need no authentication: the health
// check and the seat map.
func RegisterPublic(e *echo.Echo, health echo.HandlerFunc, seats *handler.SeatHandler) {
	e.GET("/healthz", health)
	e.GET("/v1/shows/:id/seats", seats.SeatMap)
}
