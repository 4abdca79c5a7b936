package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/seat-booking-core/internal/kvstore"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// DefaultHoldTTL is the sliding lifetime of a seat hold.
const DefaultHoldTTL = 300 * time.Second

// maxAcquireAttempts bounds the set/read/refresh loop for one seat when the
// key expires between steps.
const maxAcquireAttempts = 3

// HoldManager acquires, refreshes, verifies and releases seat holds.  A
// hold is the key hold:show:<id>:<LABEL> whose value is the claimant id.
type HoldManager struct {
	store  kvstore.Store
	ledger SeatLedger
	ttl    time.Duration
	log    *slog.Logger
}

func NewHoldManager(store kvstore.Store, ledger SeatLedger, ttl time.Duration, log *slog.Logger) *HoldManager {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &HoldManager{store: store, ledger: ledger, ttl: ttl, log: log}
}

// TTL is the hold lifetime applied on every create and refresh.
func (m *HoldManager) TTL() time.Duration { return m.ttl }

// Acquire holds or refreshes each seat for claimant, in label order.  It
// stops at the first seat held by someone else and returns the results
// gathered so far together with a conflict naming that seat; seats
// already processed stay held.
func (m *HoldManager) Acquire(ctx context.Context, showID uint64, claimant string, seats []string) ([]model.HoldResult, error) {
	labels, err := checkRequest(showID, claimant, seats)
	if err != nil {
		return nil, err
	}
	return m.acquireAll(ctx, showID, claimant, labels)
}

// ValidateThenHold checks the ledger first and acquires nothing unless
// every seat exists and is available.
func (m *HoldManager) ValidateThenHold(ctx context.Context, showID uint64, claimant string, seats []string) ([]model.HoldResult, error) {
	labels, err := checkRequest(showID, claimant, seats)
	if err != nil {
		return nil, err
	}
	if err := m.checkLedger(ctx, showID, labels); err != nil {
		return nil, err
	}
	return m.acquireAll(ctx, showID, claimant, labels)
}

func (m *HoldManager) acquireAll(ctx context.Context, showID uint64, claimant string, labels []string) ([]model.HoldResult, error) {
	results := make([]model.HoldResult, 0, len(labels))
	for _, label := range labels {
		action, err := m.acquireOne(ctx, showID, claimant, label)
		if err != nil {
			return results, err
		}
		results = append(results, model.HoldResult{Seat: label, Action: action})
	}
	return results, nil
}

// acquireOne is set-if-absent, else read the owner and refresh when it is
// the caller.  The refresh is owner-checked so a key that changed hands
// in between is never extended for someone else.
func (m *HoldManager) acquireOne(ctx context.Context, showID uint64, claimant, label string) (model.HoldAction, error) {
	key := model.HoldKey(showID, label)
	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		ok, err := m.store.SetIfAbsent(ctx, key, claimant, m.ttl)
		if err != nil {
			return "", unavailable("hold seat "+label, err)
		}
		if ok {
			return model.HoldCreated, nil
		}

		owner, err := m.store.Get(ctx, key)
		if errors.Is(err, kvstore.ErrMissing) {
			continue
		}
		if err != nil {
			return "", unavailable("hold seat "+label, err)
		}
		if owner != claimant {
			return "", conflict(label, "seat %s is held by another user", label)
		}

		refreshed, err := m.store.ExpireIfValue(ctx, key, claimant, m.ttl)
		if err != nil {
			return "", unavailable("refresh hold "+label, err)
		}
		if refreshed {
			return model.HoldRefreshed, nil
		}
	}
	return "", conflict(label, "seat %s is changing hands, try again", label)
}

// checkLedger fails fast, in this order, on a seat that does not exist, is
// booked, or is blocked.  Within each check the first label in sorted
// order is reported.
func (m *HoldManager) checkLedger(ctx context.Context, showID uint64, labels []string) error {
	statuses, err := m.ledger.SeatStatuses(ctx, showID, labels)
	if err != nil {
		return unavailable("read seat status", err)
	}
	for _, l := range labels {
		if _, ok := statuses[l]; !ok {
			return notFound(l, "seat %s not found for show %d", l, showID)
		}
	}
	for _, l := range labels {
		if statuses[l] == model.SeatBooked {
			return conflict(l, "seat %s already booked", l)
		}
	}
	for _, l := range labels {
		if statuses[l] == model.SeatBlocked {
			return conflict(l, "seat %s is blocked", l)
		}
	}
	return nil
}

// Missing returns, in label order, the seats not currently held by
// claimant.  Expired and foreign holds are both reported.
func (m *HoldManager) Missing(ctx context.Context, showID uint64, claimant string, labels []string) ([]string, error) {
	var missing []string
	for _, l := range labels {
		owner, err := m.store.Get(ctx, model.HoldKey(showID, l))
		switch {
		case errors.Is(err, kvstore.ErrMissing):
			missing = append(missing, l)
		case err != nil:
			return nil, unavailable("read hold "+l, err)
		case owner != claimant:
			missing = append(missing, l)
		}
	}
	return missing, nil
}

// Verify normalizes seats and reports which of them claimant does not
// hold.
func (m *HoldManager) Verify(ctx context.Context, showID uint64, claimant string, seats []string) ([]string, error) {
	labels, err := checkRequest(showID, claimant, seats)
	if err != nil {
		return nil, err
	}
	missing, err := m.Missing(ctx, showID, claimant, labels)
	if err != nil {
		return nil, err
	}
	if missing == nil {
		missing = []string{}
	}
	return missing, nil
}

// Release deletes each hold that claimant owns and returns how many were
// removed.  It never fails: blank labels are skipped, foreign and missing
// holds are left alone and store errors are logged.
func (m *HoldManager) Release(ctx context.Context, showID uint64, claimant string, seats []string) int {
	released := 0
	for _, raw := range seats {
		label := model.NormalizeLabel(raw)
		if label == "" {
			continue
		}
		ok, err := m.store.DeleteIfValue(ctx, model.HoldKey(showID, label), claimant)
		if err != nil {
			m.log.Warn("release hold failed", "show_id", showID, "seat", label, "err", err)
			continue
		}
		if ok {
			released++
		}
	}
	return released
}

// SeatMap lists every seat of the show with live holds overlaid.  The
// ledger is not modified.
func (m *HoldManager) SeatMap(ctx context.Context, showID uint64) ([]model.SeatView, error) {
	seats, err := m.ledger.ListSeats(ctx, showID)
	if err != nil {
		return nil, unavailable("list seats", err)
	}
	views := make([]model.SeatView, 0, len(seats))
	for _, s := range seats {
		v := model.SeatView{Label: s.Label, Status: s.Status}
		if s.Status.Sellable() {
			_, err := m.store.Get(ctx, model.HoldKey(showID, s.Label))
			switch {
			case err == nil:
				v.Held = true
			case !errors.Is(err, kvstore.ErrMissing):
				return nil, unavailable("read hold "+s.Label, err)
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// HeldBy returns, in label order, the seats of the show currently held by
// claimant.  Seats come from the ledger, so no key scan is needed.
func (m *HoldManager) HeldBy(ctx context.Context, showID uint64, claimant string) ([]string, error) {
	if showID == 0 {
		return nil, invalid("invalid show id")
	}
	if claimant == "" {
		return nil, invalid("missing claimant")
	}
	seats, err := m.ledger.ListSeats(ctx, showID)
	if err != nil {
		return nil, unavailable("list seats", err)
	}
	held := []string{}
	for _, s := range seats {
		owner, err := m.store.Get(ctx, model.HoldKey(showID, s.Label))
		switch {
		case errors.Is(err, kvstore.ErrMissing):
		case err != nil:
			return nil, unavailable("read hold "+s.Label, err)
		case owner == claimant:
			held = append(held, s.Label)
		}
	}
	return held, nil
}

func checkRequest(showID uint64, claimant string, seats []string) ([]string, error) {
	if showID == 0 {
		return nil, invalid("invalid show id")
	}
	if claimant == "" {
		return nil, invalid("missing claimant")
	}
	labels, err := model.NormalizeLabels(seats)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidInput, Msg: "invalid seats", Err: err}
	}
	return labels, nil
}
