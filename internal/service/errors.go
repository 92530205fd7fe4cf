package service

import "errors"

// Typed reservation failures.  Every failure aborts the whole
// transaction; callers never observe a partial reservation.
var (
	// ErrShowNotFound – the show does not exist.
	ErrShowNotFound = errors.New("show not found")
	// ErrShowInactive – the show was deactivated by its organizer.
	ErrShowInactive = errors.New("show is no longer active")
	// ErrInsufficientCapacity – fewer seats available than requested,
	// detected before any seat row is locked.
	ErrInsufficientCapacity = errors.New("not enough seats available")
	// ErrUnknownSeats – one or more seat IDs do not belong to the show.
	ErrUnknownSeats = errors.New("some seats not found")
	// ErrSeatsAlreadyBooked – contention loss; at least one requested
	// seat is held by another booking.
	ErrSeatsAlreadyBooked = errors.New("some seats are already booked")
	// ErrValidation – request outside the allowed bounds (seat count
	// not in [1,10], show capacity not in [1,500], duplicate seat IDs).
	ErrValidation = errors.New("validation failed")
	// ErrTransient – infrastructure failure (lock timeout, lost
	// connection).  Retryable; retry policy belongs to the caller.
	ErrTransient = errors.New("transient storage error")
)

// domainErrs are the failures Reserve/CreateShow surface as-is; anything
// else coming out of a transaction is infrastructure and gets wrapped in
// ErrTransient.
var domainErrs = []error{
	ErrShowNotFound,
	ErrShowInactive,
	ErrInsufficientCapacity,
	ErrUnknownSeats,
	ErrSeatsAlreadyBooked,
	ErrValidation,
}

func isDomainErr(err error) bool {
	for _, d := range domainErrs {
		if errors.Is(err, d) {
			return true
		}
	}
	return false
}
