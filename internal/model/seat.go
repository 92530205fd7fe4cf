package model

import (
	"strconv"
	"time"
)

// Seat is one unit of capacity within a show.  Seats are generated in
// bulk together with their show, organized into lettered rows of ten
// (A1..A10, B1.., last row possibly partial), and are uniquely addressed
// by (row, seat number) within the show.
//
// IsBooked is true exactly while the seat participates in a non-FAILED
// booking's seat set.  Version increments on every flip of IsBooked; the
// row locks are the correctness mechanism and the version counter is an
// audit trail, not a guard.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show to which this seat belongs.
//  Row        – row letter (A, B, C, ...).
//  SeatNumber – seat number within the row.
//  IsBooked   – whether the seat is currently claimed.
//  Version    – flip counter, monotonically increasing.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64    `json:"id"`          // seats.id
	ShowID     uint64    `json:"show_id"`     // seats.show_id
	Row        string    `json:"row"`         // seats.row_label
	SeatNumber uint32    `json:"seat_number"` // seats.seat_number
	IsBooked   bool      `json:"is_booked"`   // seats.is_booked
	Version    uint32    `json:"version"`     // seats.version
	CreatedAt  time.Time `json:"created_at"`  // seats.created_at
	UpdatedAt  time.Time `json:"updated_at"`  // seats.updated_at
}

// Label returns the human-readable seat address, e.g. "A7".
func (s Seat) Label() string {
	return s.Row + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
