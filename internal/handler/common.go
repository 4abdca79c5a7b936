package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/middleware"
)

// seatsRequest is the body of every seat-list operation.
type seatsRequest struct {
	Seats []string `json:"seats" validate:"required,min=1,max=50,dive,required,max=16"`
}

// claimant returns the caller's id or writes a 401.
func claimant(c echo.Context) (string, bool) {
	id, ok := middleware.ClaimantID(c)
	if !ok {
		_ = fail(c, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

// showID parses the :id path parameter or writes a 400.
func showID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		_ = fail(c, http.StatusBadRequest, "invalid show id")
		return 0, false
	}
	return id, true
}

// bind decodes and validates the body or writes a 400.
func bind(c echo.Context, dst interface{}) bool {
	if err := c.Bind(dst); err != nil {
		_ = fail(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := c.Validate(dst); err != nil {
		_ = fail(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
