package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seat-booking-core/internal/model"
	"github.com/iliyamo/seat-booking-core/internal/queue"
	"github.com/iliyamo/seat-booking-core/internal/repository"
)

const publishTimeout = 5 * time.Second

// BookingFinalizer turns a paid checkout session into a durable booking.
type BookingFinalizer struct {
	sessions  *CheckoutCoordinator
	holds     *HoldManager
	ledger    SeatLedger
	publisher EventPublisher // optional
	clock     Clock
	newID     func() string
	log       *slog.Logger
}

func NewBookingFinalizer(sessions *CheckoutCoordinator, holds *HoldManager, ledger SeatLedger, publisher EventPublisher, clock Clock, log *slog.Logger) *BookingFinalizer {
	return &BookingFinalizer{
		sessions:  sessions,
		holds:     holds,
		ledger:    ledger,
		publisher: publisher,
		clock:     clock,
		newID:     uuid.NewString,
		log:       log,
	}
}

// ConfirmInput carries the payment collaborator's verdict for a session.
type ConfirmInput struct {
	SessionID        string
	ClaimantID       string
	PaymentReference string // defaults to dummy_<session id>
}

// Confirm books the session's seats.  The holds are re-checked first, and
// the ledger write is all-or-nothing.  On failure nothing is cleaned up;
// holds and session expire on their own.
func (f *BookingFinalizer) Confirm(ctx context.Context, in ConfirmInput) (*model.Booking, error) {
	if in.ClaimantID == "" {
		return nil, invalid("missing claimant")
	}
	sess, err := f.sessions.load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if !sess.OwnedBy(in.ClaimantID) {
		return nil, forbidden("payment session belongs to another user")
	}

	missing, err := f.holds.Missing(ctx, sess.ShowID, in.ClaimantID, sess.Seats)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, conflict(missing[0], "seat %s no longer held", missing[0])
	}

	ref := in.PaymentReference
	if ref == "" {
		ref = "dummy_" + sess.ID
	}
	booking := &model.Booking{
		ID:               f.newID(),
		ClaimantID:       in.ClaimantID,
		ShowID:           sess.ShowID,
		TotalAmount:      sess.Amount,
		Status:           model.BookingConfirmed,
		PaymentReference: ref,
		BookedAt:         f.clock.now(),
		Seats:            append([]string(nil), sess.Seats...),
	}
	if err := f.ledger.CommitBooking(ctx, booking); err != nil {
		var taken *repository.SeatTakenError
		if errors.As(err, &taken) {
			return nil, conflict(taken.Label, "seat %s already booked", taken.Label)
		}
		return nil, unavailable("commit booking", err)
	}

	f.holds.Release(ctx, booking.ShowID, in.ClaimantID, booking.Seats)
	f.sessions.discard(ctx, sess.ID)
	f.publish(ctx, booking)
	return booking, nil
}

func (f *BookingFinalizer) publish(ctx context.Context, b *model.Booking) {
	if f.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := f.publisher.PublishBookingConfirmed(pctx, queue.NewBookingConfirmedEvent(b)); err != nil {
		f.log.Warn("publish booking event failed", "booking_id", b.ID, "show_id", b.ShowID, "err", err)
	}
}
