package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/handler"
	"github.com/iliyamo/seat-booking-core/internal/middleware"
)

// RegisterCustomer registers the hold and payment endpoints under /v1.
// They require a CUSTOMER token and pass through the rate limiter.
func RegisterCustomer(e *echo.Echo, seats *handler.SeatHandler, checkout *handler.CheckoutHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer),
		limiter,
	)
	g.POST("/shows/:id/holds", seats.Hold)
	g.POST("/shows/:id/holds/validate", seats.ValidateHold)
	g.POST("/shows/:id/holds/release", seats.Release)
	g.POST("/shows/:id/holds/verify", seats.Verify)
	g.GET("/shows/:id/holds/mine", seats.MyHolds)

	g.POST("/payments/session", checkout.CreateSession)
	g.GET("/payments/session/:id", checkout.GetSession)
	g.POST("/payments/cancel", checkout.Cancel)
	g.POST("/payments/confirm", checkout.Confirm)
}

// RegisterBookings registers booking history, readable by customers (their
// own bookings) and owners (any booking, plus the full listing).
func RegisterBookings(e *echo.Echo, bookings *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1/bookings",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleOwner),
	)
	g.GET("", bookings.ListAll, middleware.RequireRole(middleware.RoleOwner))
	g.GET("/my", bookings.ListMine)
	g.GET("/:id", bookings.Get)
}
