package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilqarli/show-booking/internal/model"
)

func TestSweepReclaimsExpiredBooking(t *testing.T) {
	store := newMemStore()
	pub := &capturePublisher{}
	sweeper := NewSweeper(store, pub)
	show := store.seedShow(10, true)
	bookingID := store.seedPendingBooking(show.ID, 42, []uint64{1, 2}, time.Now().Add(-time.Minute))

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	b, ok := store.booking(bookingID)
	require.True(t, ok)
	assert.Equal(t, model.BookingFailed, b.Status)
	require.NotNil(t, b.FailureReason)
	assert.Equal(t, "expired", *b.FailureReason)
	assert.Nil(t, b.ExpiresAt)

	// Seats are free again and the ledger is whole.
	for _, sid := range []uint64{1, 2} {
		seat := store.seat(sid)
		assert.False(t, seat.IsBooked)
		assert.Equal(t, uint32(2), seat.Version, "flip on hold plus flip on reclaim")
	}
	assert.Equal(t, uint32(10), store.show(show.ID).AvailableSeats)

	require.Len(t, pub.expired, 1)
	ev := pub.expired[0]
	assert.Equal(t, bookingID, ev.BookingID)
	assert.Equal(t, uint64(42), ev.UserID)
	assert.Equal(t, 2, ev.ReclaimedSeats)
	assert.Equal(t, "expired", ev.Reason)
}

func TestSweepLeavesUnexpiredAlone(t *testing.T) {
	store := newMemStore()
	sweeper := NewSweeper(store, nil)
	show := store.seedShow(10, true)
	bookingID := store.seedPendingBooking(show.ID, 42, []uint64{3}, time.Now().Add(time.Hour))

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	b, _ := store.booking(bookingID)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.True(t, store.seat(3).IsBooked)
	assert.Equal(t, uint32(9), store.show(show.ID).AvailableSeats)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := newMemStore()
	sweeper := NewSweeper(store, nil)
	show := store.seedShow(10, true)
	bookingID := store.seedPendingBooking(show.ID, 42, []uint64{1}, time.Now().Add(-time.Minute))

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Second pass finds nothing; a direct reclaim of the settled booking
	// is a no-op as well.
	n, err = sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	ev, err := sweeper.reclaim(context.Background(), bookingID)
	require.NoError(t, err)
	assert.Nil(t, ev)

	assert.Equal(t, uint32(10), store.show(show.ID).AvailableSeats)
	assert.False(t, store.seat(1).IsBooked)
}

func TestSweepReclaimsMultipleBookings(t *testing.T) {
	store := newMemStore()
	sweeper := NewSweeper(store, nil)
	show := store.seedShow(20, true)
	past := time.Now().Add(-time.Minute)
	store.seedPendingBooking(show.ID, 1, []uint64{1, 2}, past)
	store.seedPendingBooking(show.ID, 2, []uint64{5}, past)
	keptID := store.seedPendingBooking(show.ID, 3, []uint64{9}, time.Now().Add(time.Hour))

	n, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Only the live hold still counts against the ledger.
	assert.Equal(t, uint32(19), store.show(show.ID).AvailableSeats)
	kept, _ := store.booking(keptID)
	assert.Equal(t, model.BookingPending, kept.Status)
	assert.True(t, store.seat(9).IsBooked)
}

func TestSweepSurfacesListFailure(t *testing.T) {
	sweeper := NewSweeper(&errStore{err: errors.New("driver: bad connection")}, nil)
	n, err := sweeper.Sweep(context.Background())
	assert.Zero(t, n)
	assert.ErrorIs(t, err, ErrTransient)
}
