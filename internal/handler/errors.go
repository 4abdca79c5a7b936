package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/middleware"
	"github.com/iliyamo/seat-booking-core/internal/repository"
	"github.com/iliyamo/seat-booking-core/internal/service"
)

// statusFor maps core and repository error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden), errors.Is(err, repository.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrConflict), errors.Is(err, repository.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err.  Client errors carry the message and, when the
// error names one, the seat, plus any extra fields; server errors are
// logged and hidden.
func writeError(c echo.Context, err error, extra ...echo.Map) error {
	code := statusFor(err)
	if code >= 500 {
		middleware.Logger(c).Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", code,
			"err", err,
		)
		msg := "internal error"
		if code == http.StatusServiceUnavailable {
			msg = "service temporarily unavailable, retry later"
		}
		return c.JSON(code, echo.Map{"status": "error", "message": msg})
	}

	body := echo.Map{"status": "fail", "message": err.Error()}
	var se *service.Error
	if errors.As(err, &se) {
		body["message"] = se.Msg
		if se.Seat != "" {
			body["seat"] = se.Seat
		}
	}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}
	return c.JSON(code, body)
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"status": "fail", "message": msg})
}
