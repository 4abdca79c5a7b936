package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/seat-booking-core/internal/database"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// ShowSeatRepo encapsulates database operations for show_seats.
type ShowSeatRepo struct {
	db *sql.DB
	d  database.Dialect
}

// NewShowSeatRepo constructs a ShowSeatRepo given a DB handle.
func NewShowSeatRepo(db *sql.DB, d database.Dialect) *ShowSeatRepo {
	return &ShowSeatRepo{db: db, d: d}
}

// CreateBulk inserts the labels as available seats of the show.  Labels
// that already exist are skipped, whatever their status.  It returns the
// number of rows actually inserted.
func (r *ShowSeatRepo) CreateBulk(ctx context.Context, showID uint64, labels []string) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	query := r.d.InsertIgnore("show_seats", "(show_id, seat_label, status)", len(labels), 3)
	args := make([]interface{}, 0, len(labels)*3)
	for _, l := range labels {
		args = append(args, showID, l, string(model.SeatAvailable))
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert show seats: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert show seats: %w", err)
	}
	return n, nil
}

// ListByShow returns every seat of the show ordered by label.
func (r *ShowSeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.ShowSeat, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(
		`SELECT seat_label, status, updated_at FROM show_seats WHERE show_id = ? ORDER BY seat_label`),
		showID)
	if err != nil {
		return nil, fmt.Errorf("list show seats: %w", err)
	}
	defer rows.Close()

	seats := []model.ShowSeat{}
	for rows.Next() {
		var (
			s   = model.ShowSeat{ShowID: showID}
			raw string
		)
		if err := rows.Scan(&s.Label, &raw, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan show seat: %w", err)
		}
		if s.Status, err = model.ParseSeatStatus(raw); err != nil {
			return nil, fmt.Errorf("show %d seat %s: %w", showID, s.Label, err)
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// Statuses returns the durable status of each requested label.  Labels
// that do not exist for the show are absent from the map.
func (r *ShowSeatRepo) Statuses(ctx context.Context, showID uint64, labels []string) (map[string]model.SeatStatus, error) {
	out := make(map[string]model.SeatStatus, len(labels))
	if len(labels) == 0 {
		return out, nil
	}
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(
		`SELECT seat_label, status FROM show_seats WHERE show_id = ? AND seat_label IN (`+
			database.Placeholders(len(labels))+`)`), args...)
	if err != nil {
		return nil, fmt.Errorf("read seat statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var label, raw string
		if err := rows.Scan(&label, &raw); err != nil {
			return nil, fmt.Errorf("scan seat status: %w", err)
		}
		st, err := model.ParseSeatStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("show %d seat %s: %w", showID, label, err)
		}
		out[label] = st
	}
	return out, rows.Err()
}

// MarkBookedTx flips one seat from available to booked inside tx.  When
// the conditional update matches no row the seat was taken (or blocked)
// concurrently and a *SeatTakenError is returned; the caller must roll
// back.
func (r *ShowSeatRepo) MarkBookedTx(ctx context.Context, tx *sql.Tx, showID uint64, label string) error {
	res, err := tx.ExecContext(ctx, r.d.Rebind(
		`UPDATE show_seats SET status = 'booked', updated_at = CURRENT_TIMESTAMP
		 WHERE show_id = ? AND seat_label = ? AND status = 'available'`),
		showID, label)
	if err != nil {
		return fmt.Errorf("book seat %s: %w", label, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("book seat %s: %w", label, err)
	}
	if n == 0 {
		return &SeatTakenError{ShowID: showID, Label: label}
	}
	return nil
}

// Block takes an available seat off sale.
func (r *ShowSeatRepo) Block(ctx context.Context, showID uint64, label string) error {
	return r.transition(ctx, showID, label, model.SeatAvailable, model.SeatBlocked)
}

// Unblock returns a blocked seat to sale.
func (r *ShowSeatRepo) Unblock(ctx context.Context, showID uint64, label string) error {
	return r.transition(ctx, showID, label, model.SeatBlocked, model.SeatAvailable)
}

// transition applies a conditional status change.  ErrNotFound means the
// seat does not exist; ErrConflict means it exists in another state.
func (r *ShowSeatRepo) transition(ctx context.Context, showID uint64, label string, from, to model.SeatStatus) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(
		`UPDATE show_seats SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE show_id = ? AND seat_label = ? AND status = ?`),
		string(to), showID, label, string(from))
	if err != nil {
		return fmt.Errorf("set seat %s %s: %w", label, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set seat %s %s: %w", label, to, err)
	}
	if n > 0 {
		return nil
	}
	var raw string
	err = r.db.QueryRowContext(ctx, r.d.Rebind(
		`SELECT status FROM show_seats WHERE show_id = ? AND seat_label = ?`), showID, label).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read seat %s: %w", label, err)
	}
	if raw == string(to) {
		// already in the target state
		return nil
	}
	return ErrConflict
}
