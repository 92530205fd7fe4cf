package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ilqarli/show-booking/internal/queue"
)

// Sweeper reclaims seats from PENDING bookings that sat past their
// expiry deadline.  It runs the same lock pattern as the reservation
// engine (show row first, then seats) so the two never deadlock, and it
// reclaims one booking per transaction: a crash mid-sweep leaves whole
// bookings unswept, never a torn one.  Re-running with nothing expired
// is a no-op.
type Sweeper struct {
	store     Store
	publisher EventPublisher // may be nil
	now       func() time.Time
}

// NewSweeper builds a sweeper over the given store.
func NewSweeper(store Store, publisher EventPublisher) *Sweeper {
	return &Sweeper{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Sweep fails every expired PENDING booking, returns its seats to
// availability and reports how many bookings were reclaimed.  A failure
// on one booking is logged and skipped; the booking stays PENDING and
// reclaimable on the next invocation.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ids, err := s.store.ExpiredPendingBookings(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	reclaimed := 0
	for _, id := range ids {
		ev, err := s.reclaim(ctx, id)
		if err != nil {
			log.Printf("sweeper: reclaim booking %d: %v", id, err)
			continue
		}
		if ev == nil {
			continue // settled by someone else between the read and the lock
		}
		reclaimed++
		if s.publisher != nil {
			if perr := s.publisher.PublishBookingExpired(ctx, *ev); perr != nil {
				log.Printf("sweeper: publish booking.expired for booking %d: %v", id, perr)
			}
		}
	}
	return reclaimed, nil
}

// reclaim rolls back a single expired booking in its own transaction.
// Returns (nil, nil) when the booking was no longer PENDING-and-expired
// under lock.
func (s *Sweeper) reclaim(ctx context.Context, bookingID uint64) (*queue.BookingExpiredEvent, error) {
	var ev *queue.BookingExpiredEvent
	err := s.store.InTx(ctx, func(tx Tx) error {
		now := s.now()
		booking, err := tx.LockExpiredPendingBooking(ctx, bookingID, now)
		if err != nil {
			return err
		}
		if booking == nil {
			return nil
		}
		// Same lock order as Reserve: show row before seat rows.
		if _, err := tx.LockShow(ctx, booking.ShowID); err != nil {
			return mapShowErr(err)
		}
		seatIDs, err := tx.BookingSeatIDs(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := tx.SetSeatsBooked(ctx, seatIDs, false); err != nil {
			return err
		}
		if err := tx.AddAvailableSeats(ctx, booking.ShowID, int32(len(seatIDs))); err != nil {
			return err
		}
		if err := tx.FailBooking(ctx, bookingID, "expired"); err != nil {
			return err
		}
		ev = &queue.BookingExpiredEvent{
			BookingID:      bookingID,
			UserID:         booking.UserID,
			ShowID:         booking.ShowID,
			ReclaimedSeats: len(seatIDs),
			Reason:         "expired",
			ExpiredAt:      now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// Run sweeps on a fixed interval until the context is cancelled.  Meant
// to be started as a background goroutine from main; the defensive
// sweeps before availability reads cover the gaps between ticks.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				log.Printf("sweeper: sweep failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweeper: reclaimed %d expired booking(s)", n)
			}
		}
	}
}
