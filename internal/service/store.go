package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ilqarli/show-booking/internal/model"
	"github.com/ilqarli/show-booking/internal/repository"
)

// Store is the narrow persistence surface the reservation engine and the
// sweeper run against.  The production implementation wraps *sql.DB and
// the repositories; tests substitute mocks and in-memory fakes.
type Store interface {
	// InTx runs fn inside one atomic unit of work.  A nil return commits;
	// any error rolls the whole transaction back and is returned.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	// ExpiredPendingBookings returns IDs of PENDING bookings whose expiry
	// deadline has passed at the given instant.  Unlocked read; each ID
	// is re-checked under lock inside its reclamation transaction.
	ExpiredPendingBookings(ctx context.Context, now time.Time) ([]uint64, error)
}

// Tx is the set of operations available inside one transaction.  Lock
// acquisition order is fixed across all writers: show row first, then
// seat rows in ascending ID order.  That ordering is what makes two
// transactions fighting over overlapping seat sets serialize instead of
// deadlock.
type Tx interface {
	// LockShow acquires an exclusive lock on the show row.  Returns
	// repository.ErrShowNotFound when the show does not exist.
	LockShow(ctx context.Context, showID uint64) (*model.Show, error)
	// LockSeats locks the requested seat rows of the show in ascending
	// ID order.  The result may be shorter than seatIDs when some IDs do
	// not belong to the show.
	LockSeats(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error)
	// AddAvailableSeats adjusts the show's capacity counter; the show
	// row lock must already be held.
	AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error
	// SetSeatsBooked flips is_booked on the given seats, incrementing
	// each seat's version counter.
	SetSeatsBooked(ctx context.Context, seatIDs []uint64, booked bool) error

	InsertShow(ctx context.Context, s *model.Show) error
	InsertSeats(ctx context.Context, seats []model.Seat) error

	InsertBooking(ctx context.Context, showID, userID uint64, totalSeats uint32, expiresAt time.Time) (uint64, error)
	ConfirmBooking(ctx context.Context, bookingID uint64, at time.Time) error
	FailBooking(ctx context.Context, bookingID uint64, reason string) error
	AddBookedSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error
	// LockExpiredPendingBooking locks the booking row if it is still
	// PENDING and expired; (nil, nil) means another transaction settled
	// it in the meantime.
	LockExpiredPendingBooking(ctx context.Context, bookingID uint64, now time.Time) (*model.Booking, error)
	BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error)
}

// SQLStore implements Store over MySQL using the repository layer.
type SQLStore struct {
	db       *sql.DB
	shows    *repository.ShowRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
}

// NewSQLStore wires a Store over the given handle and repositories.
func NewSQLStore(db *sql.DB, shows *repository.ShowRepo, seats *repository.SeatRepo, bookings *repository.BookingRepo) *SQLStore {
	return &SQLStore{db: db, shows: shows, seats: seats, bookings: bookings}
}

// InTx begins a transaction, runs fn and commits on success.  Rollback
// errors after a failed fn are ignored; the original error wins.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&sqlTx{tx: tx, store: s}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ExpiredPendingBookings delegates to the booking repository.
func (s *SQLStore) ExpiredPendingBookings(ctx context.Context, now time.Time) ([]uint64, error) {
	return s.bookings.ListExpiredPendingIDs(ctx, now)
}

// sqlTx adapts one *sql.Tx to the Tx interface by delegating to the
// repositories' ...Tx methods.
type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) LockShow(ctx context.Context, showID uint64) (*model.Show, error) {
	return t.store.shows.LockTx(ctx, t.tx, showID)
}

func (t *sqlTx) LockSeats(ctx context.Context, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
	return t.store.seats.LockByIDsTx(ctx, t.tx, showID, seatIDs)
}

func (t *sqlTx) AddAvailableSeats(ctx context.Context, showID uint64, delta int32) error {
	return t.store.shows.AddAvailableTx(ctx, t.tx, showID, delta)
}

func (t *sqlTx) SetSeatsBooked(ctx context.Context, seatIDs []uint64, booked bool) error {
	return t.store.seats.SetBookedTx(ctx, t.tx, seatIDs, booked)
}

func (t *sqlTx) InsertShow(ctx context.Context, s *model.Show) error {
	return t.store.shows.CreateTx(ctx, t.tx, s)
}

func (t *sqlTx) InsertSeats(ctx context.Context, seats []model.Seat) error {
	return t.store.seats.CreateBulkTx(ctx, t.tx, seats)
}

func (t *sqlTx) InsertBooking(ctx context.Context, showID, userID uint64, totalSeats uint32, expiresAt time.Time) (uint64, error) {
	return t.store.bookings.CreateTx(ctx, t.tx, showID, userID, totalSeats, expiresAt)
}

func (t *sqlTx) ConfirmBooking(ctx context.Context, bookingID uint64, at time.Time) error {
	return t.store.bookings.ConfirmTx(ctx, t.tx, bookingID, at)
}

func (t *sqlTx) FailBooking(ctx context.Context, bookingID uint64, reason string) error {
	return t.store.bookings.FailTx(ctx, t.tx, bookingID, reason)
}

func (t *sqlTx) AddBookedSeats(ctx context.Context, bookingID uint64, seatIDs []uint64) error {
	return t.store.bookings.AddBookedSeatsTx(ctx, t.tx, bookingID, seatIDs)
}

func (t *sqlTx) LockExpiredPendingBooking(ctx context.Context, bookingID uint64, now time.Time) (*model.Booking, error) {
	return t.store.bookings.LockPendingTx(ctx, t.tx, bookingID, now)
}

func (t *sqlTx) BookingSeatIDs(ctx context.Context, bookingID uint64) ([]uint64, error) {
	return t.store.bookings.SeatIDsTx(ctx, t.tx, bookingID)
}

// mapShowErr translates the repository's not-found sentinel into the
// service taxonomy so engine code compares against one error set.
func mapShowErr(err error) error {
	if errors.Is(err, repository.ErrShowNotFound) {
		return ErrShowNotFound
	}
	return err
}
