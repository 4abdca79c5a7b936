package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking-core/internal/model"
)

func holdAndOpen(t *testing.T, h *harness, showID uint64, claimant string, amount int64, seats ...string) *model.CheckoutSession {
	t.Helper()
	ctx := context.Background()
	_, err := h.holds.ValidateThenHold(ctx, showID, claimant, seats)
	require.NoError(t, err)
	sess, _, err := h.sessions.Create(ctx, CreateSessionInput{ClaimantID: claimant, ShowID: showID, Seats: seats, Amount: amount})
	require.NoError(t, err)
	return sess
}

// Scenario A: hold, conflict for another claimant, session, confirm.
func TestConfirm_HappyPath(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.add(7, model.SeatAvailable, "A1", "A2")

	res, err := h.holds.Acquire(ctx, 7, "x", []string{"A1", "A2"})
	require.NoError(t, err)
	for _, r := range res {
		assert.Equal(t, model.HoldCreated, r.Action)
	}

	_, err = h.holds.Acquire(ctx, 7, "y", []string{"A1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "A1", seatOf(err))

	sess, ttl, err := h.sessions.Create(ctx, CreateSessionInput{ClaimantID: "x", ShowID: 7, Seats: []string{"A1", "A2"}, Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, ttl)

	b, err := h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.Equal(t, model.BookingConfirmed, b.Status)
	assert.Equal(t, int64(500), b.TotalAmount)
	assert.Equal(t, "dummy_"+sess.ID, b.PaymentReference)
	assert.NotEmpty(t, b.ID)

	assert.Equal(t, model.SeatBooked, h.ledger.status(7, "A1"))
	assert.Equal(t, model.SeatBooked, h.ledger.status(7, "A2"))
	assert.Equal(t, "", h.holder(t, 7, "A1"))
	assert.Equal(t, "", h.holder(t, 7, "A2"))

	_, _, err = h.sessions.Get(ctx, sess.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, b.ID, h.publisher.events[0].BookingID)
	assert.Equal(t, []string{"A1", "A2"}, h.publisher.events[0].Seats)

	// the consumed session cannot produce a second booking
	_, err = h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, h.ledger.bookingCount())
}

// Scenario B: the seat is sold out-of-band after the session was created.
func TestConfirm_SeatBookedBehindSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.add(7, model.SeatAvailable, "A1")
	sess := holdAndOpen(t, h, 7, "x", 250, "A1")

	h.ledger.add(7, model.SeatBooked, "A1")

	_, err := h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "A1", seatOf(err))
	assert.Contains(t, err.Error(), "already booked")
	assert.Zero(t, h.ledger.bookingCount())
	assert.Empty(t, h.publisher.events)

	// no cleanup on failure: hold and session are left to their TTL
	assert.Equal(t, "x", h.holder(t, 7, "A1"))
	_, err = h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Zero(t, h.ledger.bookingCount())
}

func TestConfirm_AtomicRollback(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.add(7, model.SeatAvailable, "A1", "A2", "A3")
	sess := holdAndOpen(t, h, 7, "x", 900, "A1", "A2", "A3")

	h.ledger.add(7, model.SeatBooked, "A2")

	_, err := h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	require.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "A2", seatOf(err))
	assert.Equal(t, model.SeatAvailable, h.ledger.status(7, "A1"))
	assert.Equal(t, model.SeatAvailable, h.ledger.status(7, "A3"))
	assert.Zero(t, h.ledger.bookingCount())
}

func TestConfirm_HoldLapsedBeforePayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.add(7, model.SeatAvailable, "A1", "A2")
	sess := holdAndOpen(t, h, 7, "x", 500, "A1", "A2")

	// x lets A2 go and another claimant grabs it while the session is live
	h.clock.Advance(200 * time.Second)
	_, err := h.holds.Acquire(ctx, 7, "x", []string{"A1"})
	require.NoError(t, err)
	h.clock.Advance(99 * time.Second)
	require.Equal(t, 1, h.holds.Release(ctx, 7, "x", []string{"A2"}))
	_, err = h.holds.Acquire(ctx, 7, "y", []string{"A2"})
	require.NoError(t, err)

	_, err = h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "A2", seatOf(err))
	assert.Contains(t, err.Error(), "no longer held")
	assert.Equal(t, model.SeatAvailable, h.ledger.status(7, "A1"))
}

func TestConfirm_SessionChecks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.add(7, model.SeatAvailable, "A1")
	sess := holdAndOpen(t, h, 7, "x", 100, "A1")

	_, err := h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "y"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = h.finalizer.Confirm(ctx, ConfirmInput{SessionID: "pay_missing", ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	h.clock.Advance(301 * time.Second)
	_, err = h.finalizer.Confirm(ctx, ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "expired")
}

func TestConfirm_PublishFailureDoesNotFailBooking(t *testing.T) {
	h := newHarness(t)
	h.publisher.err = errors.New("broker down")
	h.ledger.add(7, model.SeatAvailable, "A1")
	sess := holdAndOpen(t, h, 7, "x", 100, "A1")

	b, err := h.finalizer.Confirm(context.Background(), ConfirmInput{SessionID: sess.ID, ClaimantID: "x", PaymentReference: "pi_123"})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", b.PaymentReference)
	assert.Equal(t, 1, h.ledger.bookingCount())
}

func TestConfirm_LedgerOutageIsUnavailable(t *testing.T) {
	h := newHarness(t)
	h.ledger.add(7, model.SeatAvailable, "A1")
	sess := holdAndOpen(t, h, 7, "x", 100, "A1")
	h.ledger.commitErr = driver.ErrBadConn

	_, err := h.finalizer.Confirm(context.Background(), ConfirmInput{SessionID: sess.ID, ClaimantID: "x"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, driver.ErrBadConn)
	assert.Equal(t, "x", h.holder(t, 7, "A1"))
}

// Two sessions of the same claimant over the same seats race to confirm;
// the ledger's conditional update lets exactly one through.
func TestConfirm_NoDoubleBooking(t *testing.T) {
	h := newHarness(t)
	h.ledger.add(7, model.SeatAvailable, "A1", "A2", "A3")
	ctx := context.Background()

	_, err := h.holds.Acquire(ctx, 7, "x", []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	var ids []string
	for _, seats := range [][]string{{"A1", "A2"}, {"A2", "A3"}, {"A1", "A2", "A3"}, {"A2"}} {
		sess, _, err := h.sessions.Create(ctx, CreateSessionInput{ClaimantID: "x", ShowID: 7, Seats: seats, Amount: 100})
		require.NoError(t, err)
		ids = append(ids, sess.ID)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := h.finalizer.Confirm(ctx, ConfirmInput{SessionID: id, ClaimantID: "x"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			assert.ErrorIs(t, err, ErrConflict)
			assert.NotEmpty(t, seatOf(err))
		}(id)
	}
	wg.Wait()

	// every session contains A2
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, h.ledger.bookingCount())

	sold := map[string]int{}
	for _, b := range h.ledger.bookings {
		for _, s := range b.Seats {
			sold[s]++
		}
	}
	for seat, n := range sold {
		assert.Equal(t, 1, n, "seat %s sold %d times", seat, n)
	}
}
