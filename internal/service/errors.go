// Package service holds the seat-hold and booking core: the hold manager,
// the checkout session coordinator and the booking finalizer.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Match with errors.Is(err, service.ErrConflict) etc.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnavailable  = errors.New("backing store unavailable")
)

// Error is the error returned by every core operation.  Seat is set for
// conflicts (always) and for seat-level not-found errors.
type Error struct {
	Kind error
	Seat string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func invalid(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

func notFound(seat, format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Seat: seat, Msg: fmt.Sprintf(format, args...)}
}

func forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Msg: msg}
}

func conflict(seat, format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Seat: seat, Msg: fmt.Sprintf(format, args...)}
}

func unavailable(op string, err error) *Error {
	return &Error{Kind: ErrUnavailable, Msg: op, Err: err}
}
