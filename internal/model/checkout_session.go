package model

import "time"

// CheckoutSession is the snapshot stored under a session key: the
// claimant intends to pay Amount for Seats of ShowID.  It owns no seats;
// the holds do.  The JSON shape is the stored value.
type CheckoutSession struct {
	ID         string    `json:"id"`
	ClaimantID string    `json:"user_id"`
	ShowID     uint64    `json:"show_id"`
	Seats      []string  `json:"seats"`
	Amount     int64     `json:"amount"`
	CreatedAt  time.Time `json:"created_at"`
}

// OwnedBy reports whether claimant created the session.
func (s *CheckoutSession) OwnedBy(claimant string) bool {
	return s.ClaimantID == claimant
}
