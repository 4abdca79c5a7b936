package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/seat-booking-core/internal/database"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// Ledger is the durable seat ledger used by the booking core.  It reads
// seat state and commits bookings atomically.
type Ledger struct {
	db       *sql.DB
	Seats    *ShowSeatRepo
	Bookings *BookingRepo
}

// NewLedger wires the show seat and booking repositories over one handle.
func NewLedger(db *sql.DB, d database.Dialect) *Ledger {
	return &Ledger{
		db:       db,
		Seats:    NewShowSeatRepo(db, d),
		Bookings: NewBookingRepo(db, d),
	}
}

// SeatStatuses returns the status of each existing label of the show.
func (l *Ledger) SeatStatuses(ctx context.Context, showID uint64, labels []string) (map[string]model.SeatStatus, error) {
	return l.Seats.Statuses(ctx, showID, labels)
}

// ListSeats returns all seats of a show in label order.
func (l *Ledger) ListSeats(ctx context.Context, showID uint64) ([]model.ShowSeat, error) {
	return l.Seats.ListByShow(ctx, showID)
}

// CommitBooking writes b in a single transaction: the booking row, the
// available->booked flip of every seat in b.Seats (in order) and the
// booking_seats rows.  If any seat flip matches no row the whole
// transaction is rolled back and the *SeatTakenError is returned, so no
// partial booking is ever visible.
func (l *Ledger) CommitBooking(ctx context.Context, b *model.Booking) (err error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err = l.Bookings.CreateTx(ctx, tx, b); err != nil {
		return err
	}
	for _, label := range b.Seats {
		if err = l.Seats.MarkBookedTx(ctx, tx, b.ShowID, label); err != nil {
			return err
		}
	}
	if err = l.Bookings.CreateSeatsBulkTx(ctx, tx, b.ID, b.ShowID, b.Seats); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	committed = true
	return nil
}
