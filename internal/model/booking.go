package model

import "time"

// BookingStatus is the state of a booking record.  The core only ever
// writes BookingConfirmed.
type BookingStatus string

const BookingConfirmed BookingStatus = "confirmed"

// Booking records a claimant's purchase of one or more seats of a show.
// It is written exactly once per successful confirm, together with its
// seats, inside one transaction, and is immutable afterwards.
//
// Fields:
//  ID               – opaque identifier (UUID string).
//  ClaimantID       – identity that paid for the seats.
//  ShowID           – show being booked.
//  TotalAmount      – amount taken from the checkout session.
//  Status           – booking state (confirmed).
//  PaymentReference – reference supplied by the payment collaborator.
//  BookedAt         – commit timestamp (UTC).
//  Seats            – normalized labels purchased, in label order.
type Booking struct {
	ID               string        `json:"id"`                // bookings.id
	ClaimantID       string        `json:"claimant_id"`       // bookings.claimant_id
	ShowID           uint64        `json:"show_id"`           // bookings.show_id
	TotalAmount      int64         `json:"total_amount"`      // bookings.total_amount
	Status           BookingStatus `json:"status"`            // bookings.status
	PaymentReference string        `json:"payment_reference"` // bookings.payment_reference
	BookedAt         time.Time     `json:"booked_at"`         // bookings.booked_at
	Seats            []string      `json:"seats"`             // booking_seats.seat_label
}
