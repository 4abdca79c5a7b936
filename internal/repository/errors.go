// Package repository is the durable seat ledger.  Sentinel errors let the
// service and handler layers distinguish failure scenarios without
// inspecting SQL errors.
package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts to read a resource
// owned by someone else.  Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be applied because of the
// row's current state, e.g. blocking a seat that is already booked.
var ErrConflict = errors.New("conflict")

// SeatTakenError reports that the conditional available->booked update
// matched no row: the seat was sold or blocked by someone else.  It
// unwraps to ErrConflict.
type SeatTakenError struct {
	ShowID uint64
	Label  string
}

func (e *SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s of show %d is no longer available", e.Label, e.ShowID)
}

func (e *SeatTakenError) Unwrap() error { return ErrConflict }
