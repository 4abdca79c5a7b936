package service

import (
	"context"
	"time"

	"github.com/iliyamo/seat-booking-core/internal/model"
	"github.com/iliyamo/seat-booking-core/internal/queue"
)

// SeatLedger is the durable side of the core.  repository.Ledger
// implements it.
type SeatLedger interface {
	// SeatStatuses returns the status of every requested label that
	// exists for the show; unknown labels are absent from the map.
	SeatStatuses(ctx context.Context, showID uint64, labels []string) (map[string]model.SeatStatus, error)
	ListSeats(ctx context.Context, showID uint64) ([]model.ShowSeat, error)
	// CommitBooking writes the booking, flips every seat available->booked
	// and writes the booking seats atomically.  A seat lost to a concurrent
	// writer yields an error unwrapping to *repository.SeatTakenError.
	CommitBooking(ctx context.Context, b *model.Booking) error
}

// EventPublisher delivers booking-confirmed events.  Failures are logged
// by the caller and never fail a booking.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// Clock returns the current time.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
