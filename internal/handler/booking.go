package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/middleware"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// BookingReader is the read side of the booking ledger.
type BookingReader interface {
	GetForClaimant(ctx context.Context, id, claimant string, asAdmin bool) (*model.Booking, error)
	ListByClaimant(ctx context.Context, claimant string) ([]model.Booking, error)
	ListAll(ctx context.Context, limit int) ([]model.Booking, error)
}

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// BookingHandler serves booking history.
type BookingHandler struct {
	Bookings BookingReader
}

func NewBookingHandler(r BookingReader) *BookingHandler {
	return &BookingHandler{Bookings: r}
}

// ListMine handles GET /v1/bookings/my, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	list, err := h.Bookings.ListByClaimant(c.Request().Context(), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": list})
}

// Get handles GET /v1/bookings/:id.  OWNER callers may read any booking.
func (h *BookingHandler) Get(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	admin := middleware.Role(c) == middleware.RoleOwner
	b, err := h.Bookings.GetForClaimant(c.Request().Context(), c.Param("id"), uid, admin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b})
}

// ListAll handles GET /v1/bookings for OWNER callers: every claimant's
// bookings, newest first.  ?limit= caps the page (default 100, max 500).
func (h *BookingHandler) ListAll(c echo.Context) error {
	limit := defaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return fail(c, http.StatusBadRequest, "invalid limit")
		}
		limit = min(n, maxListLimit)
	}
	list, err := h.Bookings.ListAll(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(list), "bookings": list})
}
