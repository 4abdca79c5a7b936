package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/model"
)

// SeatAdmin is the seat inventory write path used by show owners.
type SeatAdmin interface {
	CreateBulk(ctx context.Context, showID uint64, labels []string) (int64, error)
	Block(ctx context.Context, showID uint64, label string) error
	Unblock(ctx context.Context, showID uint64, label string) error
}

// OwnerSeatHandler seeds and blocks show seats.  The booking core never
// calls these paths.
type OwnerSeatHandler struct {
	Seats SeatAdmin
}

func NewOwnerSeatHandler(seats SeatAdmin) *OwnerSeatHandler {
	return &OwnerSeatHandler{Seats: seats}
}

// Seed handles POST /v1/owner/shows/:id/seats.  Existing labels are kept
// as they are.
func (h *OwnerSeatHandler) Seed(c echo.Context) error {
	id, ok := showID(c)
	if !ok {
		return nil
	}
	var req struct {
		Seats []string `json:"seats" validate:"required,min=1,max=2000,dive,required,max=16"`
	}
	if !bind(c, &req) {
		return nil
	}
	labels, err := model.NormalizeLabels(req.Seats)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	n, err := h.Seats.CreateBulk(c.Request().Context(), id, labels)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"show_id": id, "requested": len(labels), "inserted": n})
}

// Block handles POST /v1/owner/shows/:id/seats/:label/block.
func (h *OwnerSeatHandler) Block(c echo.Context) error {
	return h.setStatus(c, model.SeatBlocked, h.Seats.Block)
}

// Unblock handles POST /v1/owner/shows/:id/seats/:label/unblock.
func (h *OwnerSeatHandler) Unblock(c echo.Context) error {
	return h.setStatus(c, model.SeatAvailable, h.Seats.Unblock)
}

func (h *OwnerSeatHandler) setStatus(c echo.Context, to model.SeatStatus, op func(context.Context, uint64, string) error) error {
	id, ok := showID(c)
	if !ok {
		return nil
	}
	label := model.NormalizeLabel(c.Param("label"))
	if label == "" || len(label) > model.MaxLabelLength {
		return fail(c, http.StatusBadRequest, "invalid seat label")
	}
	if err := op(c.Request().Context(), id, label); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"show_id": id, "seat_label": label, "status": to})
}
