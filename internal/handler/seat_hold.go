package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/model"
	"github.com/iliyamo/seat-booking-core/internal/service"
)

// SeatHandler exposes the hold manager: the public seat map and the
// customer's hold operations.
type SeatHandler struct {
	Holds *service.HoldManager
}

func NewSeatHandler(holds *service.HoldManager) *SeatHandler {
	if holds == nil {
		panic("nil hold manager passed to NewSeatHandler")
	}
	return &SeatHandler{Holds: holds}
}

// SeatMap handles GET /v1/shows/:id/seats.
func (h *SeatHandler) SeatMap(c echo.Context) error {
	id, ok := showID(c)
	if !ok {
		return nil
	}
	views, err := h.Holds.SeatMap(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	seats := make([]echo.Map, 0, len(views))
	for _, v := range views {
		seats = append(seats, echo.Map{"seat_label": v.Label, "status": v.DisplayStatus()})
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "seats": seats})
}

// Hold handles POST /v1/shows/:id/holds: acquire or refresh.  A conflict
// still reports the seats held before it.
func (h *SeatHandler) Hold(c echo.Context) error {
	return h.acquire(c, h.Holds.Acquire)
}

// ValidateHold handles POST /v1/shows/:id/holds/validate: ledger check,
// then acquire.
func (h *SeatHandler) ValidateHold(c echo.Context) error {
	return h.acquire(c, h.Holds.ValidateThenHold)
}

type acquireFunc func(ctx context.Context, showID uint64, claimant string, seats []string) ([]model.HoldResult, error)

func (h *SeatHandler) acquire(c echo.Context, op acquireFunc) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	id, ok := showID(c)
	if !ok {
		return nil
	}
	var req seatsRequest
	if !bind(c, &req) {
		return nil
	}
	results, err := op(c.Request().Context(), id, uid, req.Seats)
	if err != nil {
		if len(results) > 0 {
			return writeError(c, err, echo.Map{"holds": results})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":     id,
		"holds":       results,
		"ttl_seconds": int(h.Holds.TTL().Seconds()),
	})
}

// MyHolds handles GET /v1/shows/:id/holds/mine: the seats of the show the
// caller currently holds.
func (h *SeatHandler) MyHolds(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	id, ok := showID(c)
	if !ok {
		return nil
	}
	seats, err := h.Holds.HeldBy(c.Request().Context(), id, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "total": len(seats), "seats": seats})
}

// Release handles POST /v1/shows/:id/holds/release.  It always succeeds.
func (h *SeatHandler) Release(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	id, ok := showID(c)
	if !ok {
		return nil
	}
	var req seatsRequest
	if !bind(c, &req) {
		return nil
	}
	n := h.Holds.Release(c.Request().Context(), id, uid, req.Seats)
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "released": n})
}

// Verify handles POST /v1/shows/:id/holds/verify: 200 when every seat is
// held by the caller, otherwise 409 with the missing seats.
func (h *SeatHandler) Verify(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	id, ok := showID(c)
	if !ok {
		return nil
	}
	var req seatsRequest
	if !bind(c, &req) {
		return nil
	}
	missing, err := h.Holds.Verify(c.Request().Context(), id, uid, req.Seats)
	if err != nil {
		return writeError(c, err)
	}
	if len(missing) > 0 {
		return c.JSON(http.StatusConflict, echo.Map{
			"status":  "fail",
			"message": "seat " + missing[0] + " is not held by you",
			"seat":    missing[0],
			"missing": missing,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "missing": missing})
}
