package service

import (
	"context"
	"sync"
	"time"

	"github.com/ilqarli/show-booking/internal/model"
	"github.com/ilqarli/show-booking/internal/queue"
	"github.com/ilqarli/show-booking/internal/repository"
)

// memStore is an in-memory Store used by the engine tests.  InTx runs
// the body against a deep copy of the state under a mutex and swaps the
// copy in only on success, which gives the same commit-or-nothing and
// serialization guarantees the engine expects from MySQL.
type memStore struct {
	mu sync.Mutex
	st memState
}

type memState struct {
	shows       map[uint64]*model.Show
	seats       map[uint64]*model.Seat
	bookings    map[uint64]*model.Booking
	bookedSeats map[uint64][]uint64

	nextShowID    uint64
	nextSeatID    uint64
	nextBookingID uint64
}

func newMemStore() *memStore {
	return &memStore{st: memState{
		shows:       map[uint64]*model.Show{},
		seats:       map[uint64]*model.Seat{},
		bookings:    map[uint64]*model.Booking{},
		bookedSeats: map[uint64][]uint64{},
	}}
}

func (s *memState) clone() memState {
	c := memState{
		shows:         make(map[uint64]*model.Show, len(s.shows)),
		seats:         make(map[uint64]*model.Seat, len(s.seats)),
		bookings:      make(map[uint64]*model.Booking, len(s.bookings)),
		bookedSeats:   make(map[uint64][]uint64, len(s.bookedSeats)),
		nextShowID:    s.nextShowID,
		nextSeatID:    s.nextSeatID,
		nextBookingID: s.nextBookingID,
	}
	for id, sh := range s.shows {
		cp := *sh
		c.shows[id] = &cp
	}
	for id, st := range s.seats {
		cp := *st
		c.seats[id] = &cp
	}
	for id, b := range s.bookings {
		cp := *b
		c.bookings[id] = &cp
	}
	for id, ids := range s.bookedSeats {
		c.bookedSeats[id] = append([]uint64(nil), ids...)
	}
	return c
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.st.clone()
	if err := fn(&memTx{st: &work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *memStore) ExpiredPendingBookings(ctx context.Context, now time.Time) ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, b := range s.st.bookings {
		if b.Status == model.BookingPending && b.ExpiresAt != nil && b.ExpiresAt.Before(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Seeding and inspection helpers used by tests.

func (s *memStore) seedShow(totalSeats uint32, active bool) *model.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextShowID++
	show := &model.Show{
		ID:             s.st.nextShowID,
		Name:           "Test Show",
		StartTime:      time.Now().Add(24 * time.Hour).UTC(),
		TotalSeats:     totalSeats,
		AvailableSeats: totalSeats,
		IsActive:       active,
		CreatedBy:      1,
	}
	s.st.shows[show.ID] = show
	for _, seat := range SeatPlan(show.ID, totalSeats) {
		s.st.nextSeatID++
		seat.ID = s.st.nextSeatID
		cp := seat
		s.st.seats[cp.ID] = &cp
	}
	return show
}

func (s *memStore) seedPendingBooking(showID, userID uint64, seatIDs []uint64, expiresAt time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.nextBookingID++
	id := s.st.nextBookingID
	exp := expiresAt
	s.st.bookings[id] = &model.Booking{
		ID:         id,
		ShowID:     showID,
		UserID:     userID,
		Status:     model.BookingPending,
		TotalSeats: uint32(len(seatIDs)),
		ExpiresAt:  &exp,
	}
	s.st.bookedSeats[id] = append([]uint64(nil), seatIDs...)
	for _, sid := range seatIDs {
		s.st.seats[sid].IsBooked = true
		s.st.seats[sid].Version++
	}
	s.st.shows[showID].AvailableSeats -= uint32(len(seatIDs))
	return id
}

func (s *memStore) show(id uint64) model.Show {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.shows[id]
}

func (s *memStore) seat(id uint64) model.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.st.seats[id]
}

func (s *memStore) booking(id uint64) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.st.bookings[id]
	if !ok {
		return model.Booking{}, false
	}
	return *b, true
}

func (s *memStore) bookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.bookings)
}

func (s *memStore) seatIDsOfShow(showID uint64) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint64
	for id, seat := range s.st.seats {
		if seat.ShowID == showID {
			ids = append(ids, id)
		}
	}
	return ids
}

type memTx struct {
	st *memState
}

func (t *memTx) LockShow(ctx context.Context, showID uint64) (*model.Show, error) {
	show, ok := t.st.shows[showID]
	if !ok {
		return nil, repository.ErrShowNotFound
	}
	cp := *show
	return &cp, nil
}

func (t *memTx) LockSeats(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range seatIDs {
		seat, ok := t.st.seats[id]
		if !ok || seat.ShowID != showID {
			continue
		}
		out = append(out, *seat)
	}
	return out, nil
}

func (t *memTx) AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error {
	t.st.shows[showID].AvailableSeats = uint32(int32(t.st.shows[showID].AvailableSeats) + delta)
	return nil
}

func (t *memTx) SetSeatsBooked(ctx context.Context, seatIDs []uint64, booked bool) error {
	for _, id := range seatIDs {
		t.st.seats[id].IsBooked = booked
		t.st.seats[id].Version++
	}
	return nil
}

func (t *memTx) InsertShow(ctx context.Context, s *model.Show) error {
	t.st.nextShowID++
	s.ID = t.st.nextShowID
	s.AvailableSeats = s.TotalSeats
	cp := *s
	t.st.shows[cp.ID] = &cp
	return nil
}

func (t *memTx) InsertSeats(ctx context.Context, seats []model.Seat) error {
	for _, seat := range seats {
		t.st.nextSeatID++
		seat.ID = t.st.nextSeatID
		cp := seat
		t.st.seats[cp.ID] = &cp
	}
	return nil
}

func (t *memTx) InsertBooking(ctx context.Context, showID, userID uint64, totalSeats uint32, expiresAt time.Time) (uint64, error) {
	t.st.nextBookingID++
	id := t.st.nextBookingID
	exp := expiresAt
	t.st.bookings[id] = &model.Booking{
		ID:         id,
		ShowID:     showID,
		UserID:     userID,
		Status:     model.BookingPending,
		TotalSeats: totalSeats,
		ExpiresAt:  &exp,
	}
	return id, nil
}

func (t *memTx) ConfirmBooking(ctx context.Context, bookingID uint64, at time.Time) error {
	b := t.st.bookings[bookingID]
	if b.Status != model.BookingPending {
		return nil
	}
	b.Status = model.BookingConfirmed
	confirmed := at
	b.ConfirmedAt = &confirmed
	b.ExpiresAt = nil
	return nil
}

func (t *memTx) FailBooking(ctx context.Context, bookingID uint64, reason string) error {
	b := t.st.bookings[bookingID]
	if b.Status != model.BookingPending {
		return nil
	}
	b.Status = model.BookingFailed
	r := reason
	b.FailureReason = &r
	b.ExpiresAt = nil
	return nil
}

func (t *memTx) AddBookedSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error {
	t.st.bookedSeats[bookingID] = append(t.st.bookedSeats[bookingID], seatIDs...)
	return nil
}

func (t *memTx) LockExpiredPendingBooking(ctx context.Context, bookingID uint64, now time.Time) (*model.Booking, error) {
	b, ok := t.st.bookings[bookingID]
	if !ok || b.Status != model.BookingPending || b.ExpiresAt == nil || !b.ExpiresAt.Before(now) {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (t *memTx) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	return append([]uint64(nil), t.st.bookedSeats[bookingID]...), nil
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	expired   []queue.BookingExpiredEvent
}

func (p *capturePublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *capturePublisher) PublishBookingExpired(ctx context.Context, ev queue.BookingExpiredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expired = append(p.expired, ev)
	return nil
}
