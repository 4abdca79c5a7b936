package model

// HoldAction tells the caller what an acquire did to a seat's hold.
type HoldAction string

const (
	HoldCreated   HoldAction = "created"   // no live hold existed; one was set
	HoldRefreshed HoldAction = "refreshed" // caller already held it; TTL reset
)

// HoldResult is the per-seat outcome of an acquire.
type HoldResult struct {
	Seat   string     `json:"seat"`
	Action HoldAction `json:"action"`
}
