// Package queue defines message payloads exchanged over the message
// broker and the background consumer that audits them.
package queue

// Queue names for booking lifecycle events.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingExpiredQueue   = "booking.expired"
)

// BookingConfirmedEvent is published after a reservation transaction
// commits.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	ShowID      uint64   `json:"show_id"`
	ShowName    string   `json:"show_name"`
	StartTime   string   `json:"start_time"`
	SeatLabels  []string `json:"seats"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// BookingExpiredEvent is published after the sweeper reclaims a stale
// PENDING booking and returns its seats to availability.
type BookingExpiredEvent struct {
	BookingID      uint64 `json:"booking_id"`
	UserID         uint64 `json:"user_id"`
	ShowID         uint64 `json:"show_id"`
	ReclaimedSeats int    `json:"reclaimed_seats"`
	Reason         string `json:"reason"`
	ExpiredAt      string `json:"expired_at"`
}
