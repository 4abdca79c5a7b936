package model

import (
	"fmt"
	"time"
)

// SeatStatus is the durable sale state of a seat for a show.  It is a
// closed set: every value read from the ledger is parsed through
// ParseSeatStatus so an unknown string can never fall through a switch.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "available" // sellable, may be held
	SeatBooked    SeatStatus = "booked"    // sold; terminal
	SeatBlocked   SeatStatus = "blocked"   // removed from sale out-of-band; terminal for the core
)

// ParseSeatStatus converts a raw column value into a SeatStatus.  The
// comparison is exact; the ledger always stores lower-case values.
func ParseSeatStatus(raw string) (SeatStatus, error) {
	switch SeatStatus(raw) {
	case SeatAvailable, SeatBooked, SeatBlocked:
		return SeatStatus(raw), nil
	}
	return "", fmt.Errorf("unknown seat status %q", raw)
}

// Sellable reports whether a seat in this state may still be booked.
func (s SeatStatus) Sellable() bool {
	switch s {
	case SeatAvailable:
		return true
	case SeatBooked, SeatBlocked:
		return false
	}
	return false
}

// ShowSeat links a seat label to a particular show and tracks its
// durable status.  There is one show_seats row per (show, label).
//
// Fields:
//  ShowID    – the show to which this seat belongs.
//  Label     – normalized seat label, unique within the show.
//  Status    – durable status (available, booked, blocked).
//  UpdatedAt – timestamp of the last status change.
type ShowSeat struct {
	ShowID    uint64     // show_seats.show_id
	Label     string     // show_seats.seat_label
	Status    SeatStatus // show_seats.status
	UpdatedAt time.Time  // show_seats.updated_at
}

// SeatView is the seat map entry returned to clients.  Held is derived
// from the hold store and is only ever true for available seats.
type SeatView struct {
	Label  string     `json:"seat_label"`
	Status SeatStatus `json:"status"`
	Held   bool       `json:"held"`
}

// DisplayStatus is the status shown on the seat map: "held" for an
// available seat with a live hold, otherwise the ledger status.
func (v SeatView) DisplayStatus() string {
	if v.Held && v.Status.Sellable() {
		return "held"
	}
	return string(v.Status)
}
