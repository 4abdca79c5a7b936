package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/seat-booking-core/internal/kvstore"
	"github.com/iliyamo/seat-booking-core/internal/model"
)

// DefaultSessionTTL is the absolute lifetime of a checkout session.
const DefaultSessionTTL = 300 * time.Second

// CheckoutCoordinator creates, reads and cancels checkout sessions.  A
// session is a JSON snapshot stored under pay:session:<id>; it never
// owns seats, the holds do.
type CheckoutCoordinator struct {
	store kvstore.Store
	holds *HoldManager
	ttl   time.Duration
	clock Clock
	newID func() string
	log   *slog.Logger
}

func NewCheckoutCoordinator(store kvstore.Store, holds *HoldManager, ttl time.Duration, clock Clock, log *slog.Logger) *CheckoutCoordinator {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &CheckoutCoordinator{
		store: store,
		holds: holds,
		ttl:   ttl,
		clock: clock,
		newID: func() string { return "pay_" + uuid.NewString() },
		log:   log,
	}
}

// CreateSessionInput is what a claimant commits to paying for.
type CreateSessionInput struct {
	ClaimantID string
	ShowID     uint64
	Seats      []string
	Amount     int64
}

// Create stores a new session once every seat exists, is neither booked
// nor blocked, and is held by the caller (checked in that order).  It
// returns the session and its TTL.
func (c *CheckoutCoordinator) Create(ctx context.Context, in CreateSessionInput) (*model.CheckoutSession, time.Duration, error) {
	labels, err := checkRequest(in.ShowID, in.ClaimantID, in.Seats)
	if err != nil {
		return nil, 0, err
	}
	if in.Amount <= 0 {
		return nil, 0, invalid("amount must be positive")
	}
	if err := c.holds.checkLedger(ctx, in.ShowID, labels); err != nil {
		return nil, 0, err
	}
	missing, err := c.holds.Missing(ctx, in.ShowID, in.ClaimantID, labels)
	if err != nil {
		return nil, 0, err
	}
	if len(missing) > 0 {
		return nil, 0, conflict(missing[0], "seat %s is not held by you", missing[0])
	}

	sess := &model.CheckoutSession{
		ID:         c.newID(),
		ClaimantID: in.ClaimantID,
		ShowID:     in.ShowID,
		Seats:      labels,
		Amount:     in.Amount,
		CreatedAt:  c.clock.now(),
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, 0, fmt.Errorf("encode session: %w", err)
	}
	if err := c.store.Set(ctx, model.SessionKey(sess.ID), string(raw), c.ttl); err != nil {
		return nil, 0, unavailable("store session", err)
	}
	return sess, c.ttl, nil
}

// Get returns the caller's session and its live remaining TTL.  Expired
// and unknown ids both yield ErrNotFound.
func (c *CheckoutCoordinator) Get(ctx context.Context, sessionID, claimant string) (*model.CheckoutSession, time.Duration, error) {
	sess, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, 0, err
	}
	if !sess.OwnedBy(claimant) {
		return nil, 0, forbidden("payment session belongs to another user")
	}
	ttl, err := c.store.TTL(ctx, model.SessionKey(sessionID))
	if errors.Is(err, kvstore.ErrMissing) {
		return nil, 0, notFound("", "payment session expired")
	}
	if err != nil {
		return nil, 0, unavailable("read session ttl", err)
	}
	return sess, ttl, nil
}

// Cancel releases the session's holds and deletes it, returning the
// number of holds released.  A missing or expired session is a no-op.
func (c *CheckoutCoordinator) Cancel(ctx context.Context, sessionID, claimant string) (int, error) {
	sess, err := c.load(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !sess.OwnedBy(claimant) {
		return 0, forbidden("payment session belongs to another user")
	}
	released := c.holds.Release(ctx, sess.ShowID, claimant, sess.Seats)
	c.discard(ctx, sessionID)
	return released, nil
}

// load fetches and decodes a session snapshot.
func (c *CheckoutCoordinator) load(ctx context.Context, sessionID string) (*model.CheckoutSession, error) {
	if sessionID == "" {
		return nil, invalid("session_id is required")
	}
	raw, err := c.store.Get(ctx, model.SessionKey(sessionID))
	if errors.Is(err, kvstore.ErrMissing) {
		return nil, notFound("", "payment session expired")
	}
	if err != nil {
		return nil, unavailable("read session", err)
	}
	var sess model.CheckoutSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, nil
}

// discard deletes a session, logging failures; the TTL removes it anyway.
func (c *CheckoutCoordinator) discard(ctx context.Context, sessionID string) {
	if err := c.store.Delete(ctx, model.SessionKey(sessionID)); err != nil {
		c.log.Warn("delete payment session failed", "session_id", sessionID, "err", err)
	}
}
