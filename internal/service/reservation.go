// Package service holds the seat reservation engine: the locked
// transaction that decides whether a reservation succeeds, the booking
// state machine it drives, and the sweeper that reclaims seats from
// abandoned bookings.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ilqarli/show-booking/internal/model"
	"github.com/ilqarli/show-booking/internal/queue"
)

// Reservation bounds.  A booking claims between 1 and 10 seats; a show
// carries between 1 and 500 seats, laid out in rows of 10.
const (
	MaxSeatsPerBooking = 10
	MaxSeatsPerShow    = 500
	SeatsPerRow        = 10
)

// EventPublisher pushes booking lifecycle events to the broker.  Publish
// failures are logged and swallowed; events are best-effort and must
// never fail a committed reservation.
type EventPublisher interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
	PublishBookingExpired(ctx context.Context, ev queue.BookingExpiredEvent) error
}

// CreateShowParams carries organizer input for a new show.
type CreateShowParams struct {
	Name        string
	Description *string
	StartTime   time.Time
	TotalSeats  uint32
	CreatedBy   uint64
}

// ReservationService exposes the core operations the request-handling
// layer calls into.
type ReservationService interface {
	// CreateShow persists a show together with its generated seat
	// inventory and returns the new show ID.
	CreateShow(ctx context.Context, p CreateShowParams) (uint64, error)
	// Reserve atomically claims the given seats of a show for a user.
	// Exactly one of any set of concurrent overlapping attempts
	// succeeds; the rest receive a typed error and leave no trace.
	Reserve(ctx context.Context, showID, userID uint64, seatIDs []uint64) (uint64, error)
}

type reservationService struct {
	store      Store
	publisher  EventPublisher // may be nil when no broker is configured
	holdWindow time.Duration
	now        func() time.Time
}

// NewReservationService builds the engine.  holdWindow is how long a
// PENDING booking survives before the sweeper reclaims it; publisher may
// be nil to disable event publishing.
func NewReservationService(store Store, publisher EventPublisher, holdWindow time.Duration) ReservationService {
	return &reservationService{
		store:      store,
		publisher:  publisher,
		holdWindow: holdWindow,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateShow validates the capacity bounds, inserts the show and its
// seat inventory in one transaction and returns the show ID.
func (s *reservationService) CreateShow(ctx context.Context, p CreateShowParams) (uint64, error) {
	if p.Name == "" {
		return 0, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if p.TotalSeats < 1 || p.TotalSeats > MaxSeatsPerShow {
		return 0, fmt.Errorf("%w: total seats must be between 1 and %d", ErrValidation, MaxSeatsPerShow)
	}
	show := &model.Show{
		Name:        p.Name,
		Description: p.Description,
		StartTime:   p.StartTime.UTC(),
		TotalSeats:  p.TotalSeats,
		IsActive:    true,
		CreatedBy:   p.CreatedBy,
	}
	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertShow(ctx, show); err != nil {
			return err
		}
		return tx.InsertSeats(ctx, SeatPlan(show.ID, p.TotalSeats))
	})
	if err != nil {
		return 0, wrapInfra(err)
	}
	return show.ID, nil
}

// Reserve runs the reservation transaction:
//
//  1. lock the show row; absent → ErrShowNotFound, inactive → ErrShowInactive
//  2. fail fast on the ledger before touching any seat row
//  3. lock exactly the requested seat rows in ascending ID order
//  4. any locked seat already booked → abort, no partial reservation
//  5. insert a PENDING booking with an expiry deadline, flip the seats,
//     write the junction rows, decrement the ledger
//  6. promote the booking to CONFIRMED in the same transaction
//
// Any error rolls the whole unit back; no other transaction ever
// observes a partial reservation.
func (s *reservationService) Reserve(ctx context.Context, showID, userID uint64, seatIDs []uint64) (uint64, error) {
	if err := validateSeatIDs(seatIDs); err != nil {
		return 0, err
	}

	var bookingID uint64
	var ev queue.BookingConfirmedEvent
	err := s.store.InTx(ctx, func(tx Tx) error {
		show, err := tx.LockShow(ctx, showID)
		if err != nil {
			return mapShowErr(err)
		}
		if !show.IsActive {
			return ErrShowInactive
		}
		requested := uint32(len(seatIDs))
		if show.AvailableSeats < requested {
			return ErrInsufficientCapacity
		}

		seats, err := tx.LockSeats(ctx, showID, seatIDs)
		if err != nil {
			return err
		}
		if len(seats) != len(seatIDs) {
			return ErrUnknownSeats
		}
		labels := make([]string, 0, len(seats))
		for _, seat := range seats {
			if seat.IsBooked {
				return ErrSeatsAlreadyBooked
			}
			labels = append(labels, seat.Label())
		}

		now := s.now()
		bookingID, err = tx.InsertBooking(ctx, showID, userID, requested, now.Add(s.holdWindow))
		if err != nil {
			return err
		}
		if err := tx.SetSeatsBooked(ctx, seatIDs, true); err != nil {
			return err
		}
		if err := tx.AddBookedSeats(ctx, bookingID, seatIDs); err != nil {
			return err
		}
		if err := tx.AddAvailableSeats(ctx, showID, -int32(requested)); err != nil {
			return err
		}
		// No external hold/settlement step: confirm right away.  PENDING
		// is only observable after a crash between here and commit, and
		// the sweeper cleans that up.
		if err := tx.ConfirmBooking(ctx, bookingID, now); err != nil {
			return err
		}

		ev = queue.BookingConfirmedEvent{
			BookingID:   bookingID,
			UserID:      userID,
			ShowID:      showID,
			ShowName:    show.Name,
			StartTime:   show.StartTime.UTC().Format(time.RFC3339),
			SeatLabels:  labels,
			ConfirmedAt: now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return 0, wrapInfra(err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishBookingConfirmed(ctx, ev); err != nil {
			log.Printf("reservation: publish booking.confirmed for booking %d: %v", bookingID, err)
		}
	}
	return bookingID, nil
}

// validateSeatIDs enforces the [1,10] bound and uniqueness of the
// requested seat set.
func validateSeatIDs(seatIDs []uint64) error {
	if len(seatIDs) < 1 || len(seatIDs) > MaxSeatsPerBooking {
		return fmt.Errorf("%w: select between 1 and %d seats", ErrValidation, MaxSeatsPerBooking)
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			return fmt.Errorf("%w: seat id must be positive", ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate seat id %d", ErrValidation, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// SeatPlan generates the seat inventory for a show: rows of ten seats
// lettered A, B, C, ... (continuing AA, AB, ... past Z), the last row
// possibly partial.
func SeatPlan(showID uint64, totalSeats uint32) []model.Seat {
	seats := make([]model.Seat, 0, totalSeats)
	for row := uint32(0); row*SeatsPerRow < totalSeats; row++ {
		inRow := totalSeats - row*SeatsPerRow
		if inRow > SeatsPerRow {
			inRow = SeatsPerRow
		}
		label := rowLabel(row)
		for n := uint32(1); n <= inRow; n++ {
			seats = append(seats, model.Seat{
				ShowID:     showID,
				Row:        label,
				SeatNumber: n,
			})
		}
	}
	return seats
}

// rowLabel maps a zero-based row index to spreadsheet-style letters:
// 0→A, 25→Z, 26→AA.
func rowLabel(row uint32) string {
	label := ""
	n := row
	for {
		label = string(rune('A'+n%26)) + label
		if n < 26 {
			break
		}
		n = n/26 - 1
	}
	return label
}

// wrapInfra passes domain failures through untouched and wraps anything
// else (driver errors, lock timeouts, lost connections) as retryable.
func wrapInfra(err error) error {
	if err == nil || isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}
