package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/seat-booking-core/internal/database"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// BookingRepo persists bookings and the seats sold under them.  Bookings
// are immutable once written.
type BookingRepo struct {
	db *sql.DB
	d  database.Dialect
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, d database.Dialect) *BookingRepo {
	return &BookingRepo{db: db, d: d}
}

// CreateTx inserts the booking row inside tx.  The ID must already be set;
// the caller commits or rolls back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	_, err := tx.ExecContext(ctx, r.d.Rebind(
		`INSERT INTO bookings (id, claimant_id, show_id, total_amount, status, payment_reference, booked_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.ClaimantID, b.ShowID, b.TotalAmount, string(b.Status), b.PaymentReference, b.BookedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// CreateSeatsBulkTx inserts one booking_seats row per label in a single
// statement.  Passing no labels has no effect.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, bookingID string, showID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, show_id, seat_label) VALUES `
	args := make([]interface{}, 0, len(labels)*3)
	for i, l := range labels {
		if i > 0 {
			query += ", "
		}
		query += "(?, ?, ?)"
		args = append(args, bookingID, showID, l)
	}
	if _, err := tx.ExecContext(ctx, r.d.Rebind(query), args...); err != nil {
		return fmt.Errorf("insert booking seats: %w", err)
	}
	return nil
}

const bookingColumns = `id, claimant_id, show_id, total_amount, status, payment_reference, booked_at`

// GetByID loads one booking with its seats, or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	err := r.db.QueryRowContext(ctx, r.d.Rebind(
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`), id).Scan(
		&b.ID, &b.ClaimantID, &b.ShowID, &b.TotalAmount, &status, &b.PaymentReference, &b.BookedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	b.Status = model.BookingStatus(status)

	seats, err := r.seatsFor(ctx, []string{b.ID})
	if err != nil {
		return nil, err
	}
	b.Seats = seats[b.ID]
	if b.Seats == nil {
		b.Seats = []string{}
	}
	return &b, nil
}

// GetForClaimant returns the booking when claimant owns it.  Admin callers
// pass asAdmin to bypass the ownership check.
func (r *BookingRepo) GetForClaimant(ctx context.Context, id, claimant string, asAdmin bool) (*model.Booking, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asAdmin && b.ClaimantID != claimant {
		return nil, ErrForbidden
	}
	return b, nil
}

// ListByClaimant returns the claimant's bookings, newest first, each with
// its seat labels.
func (r *BookingRepo) ListByClaimant(ctx context.Context, claimant string) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE claimant_id = ? ORDER BY booked_at DESC, id`, claimant)
}

// ListAll returns the newest bookings of every claimant, at most limit of
// them.
func (r *BookingRepo) ListAll(ctx context.Context, limit int) ([]model.Booking, error) {
	return r.list(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY booked_at DESC, id LIMIT ?`, limit)
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	out := []model.Booking{}
	for rows.Next() {
		var (
			b      model.Booking
			status string
		)
		if err := rows.Scan(&b.ID, &b.ClaimantID, &b.ShowID, &b.TotalAmount, &status, &b.PaymentReference, &b.BookedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		b.Status = model.BookingStatus(status)
		out = append(out, b)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i := range out {
		ids[i] = out[i].ID
	}
	seats, err := r.seatsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Seats = seats[out[i].ID]
		if out[i].Seats == nil {
			out[i].Seats = []string{}
		}
	}
	return out, nil
}

func (r *BookingRepo) seatsFor(ctx context.Context, ids []string) (map[string][]string, error) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(
		`SELECT booking_id, seat_label FROM booking_seats WHERE booking_id IN (`+
			database.Placeholders(len(ids))+`) ORDER BY booking_id, seat_label`), args...)
	if err != nil {
		return nil, fmt.Errorf("list booking seats: %w", err)
	}
	defer rows.Close()
	out := make(map[string][]string, len(ids))
	for rows.Next() {
		var id, label string
		if err := rows.Scan(&id, &label); err != nil {
			return nil, fmt.Errorf("scan booking seat: %w", err)
		}
		out[id] = append(out[id], label)
	}
	return out, rows.Err()
}
