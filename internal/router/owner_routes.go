package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/handler"
	"github.com/iliyamo/seat-booking-core/internal/middleware"
)

// RegisterOwner registers OWNER-scoped seat inventory endpoints.
func RegisterOwner(e *echo.Echo, o *handler.OwnerSeatHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOwner),
	)
	g.POST("/shows/:id/seats", o.Seed)
	g.POST("/shows/:id/seats/:label/block", o.Block)
	g.POST("/shows/:id/seats/:label/unblock", o.Unblock)
}
