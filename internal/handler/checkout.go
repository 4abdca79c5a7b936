package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking-core/internal/model"
	"github.com/iliyamo/seat-booking-core/internal/service"
)

// CheckoutHandler serves the payment session endpoints.  The payment
// provider itself is external; Confirm is called once it reports success.
type CheckoutHandler struct {
	Sessions  *service.CheckoutCoordinator
	Finalizer *service.BookingFinalizer
}

func NewCheckoutHandler(sessions *service.CheckoutCoordinator, finalizer *service.BookingFinalizer) *CheckoutHandler {
	if sessions == nil || finalizer == nil {
		panic("nil dependency passed to NewCheckoutHandler")
	}
	return &CheckoutHandler{Sessions: sessions, Finalizer: finalizer}
}

type createSessionRequest struct {
	ShowID uint64   `json:"show_id" validate:"required,gt=0"`
	Seats  []string `json:"seats" validate:"required,min=1,max=50,dive,required,max=16"`
	Amount int64    `json:"amount" validate:"required,gt=0"`
}

type sessionRequest struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
}

type confirmRequest struct {
	SessionID        string `json:"session_id" validate:"required,max=64"`
	PaymentReference string `json:"payment_reference" validate:"max=128"`
}

func sessionBody(s *model.CheckoutSession, ttlSeconds int) echo.Map {
	return echo.Map{
		"session_id":  s.ID,
		"show_id":     s.ShowID,
		"seats":       s.Seats,
		"amount":      s.Amount,
		"created_at":  s.CreatedAt,
		"ttl_seconds": ttlSeconds,
	}
}

// CreateSession handles POST /v1/payments/session.
func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	var req createSessionRequest
	if !bind(c, &req) {
		return nil
	}
	sess, ttl, err := h.Sessions.Create(c.Request().Context(), service.CreateSessionInput{
		ClaimantID: uid,
		ShowID:     req.ShowID,
		Seats:      req.Seats,
		Amount:     req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionBody(sess, int(ttl.Seconds())))
}

// GetSession handles GET /v1/payments/session/:id with the live TTL.
func (h *CheckoutHandler) GetSession(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	sess, ttl, err := h.Sessions.Get(c.Request().Context(), c.Param("id"), uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionBody(sess, int(ttl.Seconds())))
}

// Cancel handles POST /v1/payments/cancel.  Cancelling an unknown or
// expired session succeeds.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	var req sessionRequest
	if !bind(c, &req) {
		return nil
	}
	n, err := h.Sessions.Cancel(c.Request().Context(), req.SessionID, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "success", "released": n})
}

// Confirm handles POST /v1/payments/confirm.
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	uid, ok := claimant(c)
	if !ok {
		return nil
	}
	var req confirmRequest
	if !bind(c, &req) {
		return nil
	}
	b, err := h.Finalizer.Confirm(c.Request().Context(), service.ConfirmInput{
		SessionID:        req.SessionID,
		ClaimantID:       uid,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"status": "success", "booking": b})
}
