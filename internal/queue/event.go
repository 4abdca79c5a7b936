// Package queue carries booking-confirmed events to the message broker and
// hosts the consumer that turns them into booking log lines.
package queue

import (
	"time"

	"github.com/iliyamo/seat-booking-core/internal/model"
)

// BookingConfirmedQueue is the RabbitMQ queue (and default Kafka topic)
// for booking-confirmed events.
const BookingConfirmedQueue = "booking.confirmed"

// BookingConfirmedEvent is published after a booking commits.  It carries
// enough for downstream consumers to log or notify without querying the
// ledger.
type BookingConfirmedEvent struct {
	BookingID        string   `json:"booking_id"`
	ClaimantID       string   `json:"claimant_id"`
	ShowID           uint64   `json:"show_id"`
	Seats            []string `json:"seats"`
	TotalAmount      int64    `json:"total_amount"`
	PaymentReference string   `json:"payment_reference"`
	ConfirmedAt      string   `json:"confirmed_at"` // RFC3339, UTC
}

// NewBookingConfirmedEvent snapshots a committed booking.
func NewBookingConfirmedEvent(b *model.Booking) BookingConfirmedEvent {
	return BookingConfirmedEvent{
		BookingID:        b.ID,
		ClaimantID:       b.ClaimantID,
		ShowID:           b.ShowID,
		Seats:            append([]string(nil), b.Seats...),
		TotalAmount:      b.TotalAmount,
		PaymentReference: b.PaymentReference,
		ConfirmedAt:      b.BookedAt.UTC().Format(time.RFC3339),
	}
}
