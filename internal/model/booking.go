package model

import "time"

// Booking lifecycle states.  PENDING is transient and carries an expiry
// deadline; CONFIRMED and FAILED are terminal and never transition again.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingFailed    = "FAILED"
)

// Booking records one user's claim over one or more seats of a show.
// A booking is created PENDING inside the reservation transaction and is
// promoted to CONFIRMED within the same transaction; PENDING survives a
// commit only if the process crashes mid-flight, in which case the expiry
// sweeper fails it and returns its seats to availability.
//
// Fields:
//  ID            – primary key identifier.
//  ShowID        – show being booked.
//  UserID        – user who made the booking.
//  Status        – PENDING, CONFIRMED or FAILED.
//  TotalSeats    – number of seats claimed (audit copy, independent of
//                  the booked_seats junction rows).
//  FailureReason – why the booking failed (set only on FAILED).
//  ExpiresAt     – deadline for PENDING bookings (nullable).
//  ConfirmedAt   – when the booking was confirmed (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64     `json:"id"`             // bookings.id
	ShowID        uint64     `json:"show_id"`        // bookings.show_id
	UserID        uint64     `json:"user_id"`        // bookings.user_id
	Status        string     `json:"status"`         // bookings.status
	TotalSeats    uint32     `json:"total_seats"`    // bookings.total_seats
	FailureReason *string    `json:"failure_reason"` // bookings.failure_reason (nullable)
	ExpiresAt     *time.Time `json:"expires_at"`     // bookings.expires_at (nullable)
	ConfirmedAt   *time.Time `json:"confirmed_at"`   // bookings.confirmed_at (nullable)
	CreatedAt     time.Time  `json:"created_at"`     // bookings.created_at
	UpdatedAt     time.Time  `json:"updated_at"`     // bookings.updated_at
}

// BookedSeat ties one booking to one seat.  Rows are append-only; while
// the owning booking is non-FAILED, the row's existence means the seat is
// reserved by that booking.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – owning booking.
//  SeatID    – seat claimed by the booking.
//  CreatedAt – creation timestamp.
type BookedSeat struct {
	ID        uint64    `json:"id"`         // booked_seats.id
	BookingID uint64    `json:"booking_id"` // booked_seats.booking_id
	SeatID    uint64    `json:"seat_id"`    // booked_seats.seat_id
	CreatedAt time.Time `json:"created_at"` // booked_seats.created_at
}
