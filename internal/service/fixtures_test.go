package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/seat-booking-core/internal/kvstore"
	"github.com/iliyamo/seat-booking-core/internal/logger"
	"github.com/iliyamo/seat-booking-core/internal/model"
	"github.com/iliyamo/seat-booking-core/internal/queue"
	"github.com/iliyamo/seat-booking-core/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeLedger commits all-or-nothing under a mutex, mirroring the
// conditional update inside one transaction.
type fakeLedger struct {
	mu        sync.Mutex
	seats     map[uint64]map[string]model.SeatStatus
	bookings  []model.Booking
	commitErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{seats: map[uint64]map[string]model.SeatStatus{}}
}

func (l *fakeLedger) add(showID uint64, status model.SeatStatus, labels ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seats[showID] == nil {
		l.seats[showID] = map[string]model.SeatStatus{}
	}
	for _, lb := range labels {
		l.seats[showID][lb] = status
	}
}

func (l *fakeLedger) status(showID uint64, label string) model.SeatStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seats[showID][label]
}

func (l *fakeLedger) bookingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.bookings)
}

func (l *fakeLedger) SeatStatuses(_ context.Context, showID uint64, labels []string) (map[string]model.SeatStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := map[string]model.SeatStatus{}
	for _, lb := range labels {
		if st, ok := l.seats[showID][lb]; ok {
			out[lb] = st
		}
	}
	return out, nil
}

func (l *fakeLedger) ListSeats(_ context.Context, showID uint64) ([]model.ShowSeat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.ShowSeat
	for lb, st := range l.seats[showID] {
		out = append(out, model.ShowSeat{ShowID: showID, Label: lb, Status: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (l *fakeLedger) CommitBooking(_ context.Context, b *model.Booking) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.commitErr != nil {
		return l.commitErr
	}
	for _, lb := range b.Seats {
		if l.seats[b.ShowID][lb] != model.SeatAvailable {
			return &repository.SeatTakenError{ShowID: b.ShowID, Label: lb}
		}
	}
	for _, lb := range b.Seats {
		l.seats[b.ShowID][lb] = model.SeatBooked
	}
	l.bookings = append(l.bookings, *b)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

// downStore fails every operation, as an unreachable backend would.
type downStore struct{}

var errDown = errors.New("dial tcp: connection refused")

func (downStore) SetIfAbsent(context.Context, string, string, time.Duration) (bool, error) {
	return false, errDown
}
func (downStore) Get(context.Context, string) (string, error)                    { return "", errDown }
func (downStore) Set(context.Context, string, string, time.Duration) error       { return errDown }
func (downStore) ExpireIfValue(context.Context, string, string, time.Duration) (bool, error) {
	return false, errDown
}
func (downStore) DeleteIfValue(context.Context, string, string) (bool, error) { return false, errDown }
func (downStore) Delete(context.Context, string) error                        { return errDown }
func (downStore) TTL(context.Context, string) (time.Duration, error)          { return 0, errDown }

type harness struct {
	clock     *fakeClock
	store     *kvstore.MemoryStore
	ledger    *fakeLedger
	publisher *recordingPublisher
	holds     *HoldManager
	sessions  *CheckoutCoordinator
	finalizer *BookingFinalizer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clk := &fakeClock{now: time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC)}
	store := kvstore.NewMemoryStore(clk.Now)
	ledger := newFakeLedger()
	pub := &recordingPublisher{}
	log := logger.Discard()

	holds := NewHoldManager(store, ledger, DefaultHoldTTL, log)
	sessions := NewCheckoutCoordinator(store, holds, DefaultSessionTTL, clk.Now, log)
	finalizer := NewBookingFinalizer(sessions, holds, ledger, pub, clk.Now, log)
	return &harness{
		clock:     clk,
		store:     store,
		ledger:    ledger,
		publisher: pub,
		holds:     holds,
		sessions:  sessions,
		finalizer: finalizer,
	}
}

func (h *harness) holder(t *testing.T, showID uint64, label string) string {
	t.Helper()
	owner, err := h.store.Get(context.Background(), model.HoldKey(showID, label))
	if errors.Is(err, kvstore.ErrMissing) {
		return ""
	}
	if err != nil {
		t.Fatalf("read hold: %v", err)
	}
	return owner
}

// seatOf extracts the seat named by a service error.
func seatOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Seat
	}
	return ""
}
