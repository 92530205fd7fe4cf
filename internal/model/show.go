package model

import "time"

// Show represents a capacity-limited bookable event.  The seat inventory
// is generated once at creation time; TotalSeats never changes afterwards
// while AvailableSeats is the live capacity counter maintained by the
// reservation and sweep transactions.
//
// Invariant: 0 <= AvailableSeats <= TotalSeats at every committed state.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name of the show.
//  Description    – optional longer description.
//  StartTime      – when the show starts (UTC).
//  TotalSeats     – fixed seat count, set at creation.
//  AvailableSeats – seats currently free to reserve.
//  IsActive       – whether the show accepts reservations.
//  CreatedBy      – user ID of the organizer who created the show.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Show struct {
	ID             uint64    `json:"id"`              // shows.id
	Name           string    `json:"name"`            // shows.name
	Description    *string   `json:"description"`     // shows.description (nullable)
	StartTime      time.Time `json:"start_time"`      // shows.start_time
	TotalSeats     uint32    `json:"total_seats"`     // shows.total_seats
	AvailableSeats uint32    `json:"available_seats"` // shows.available_seats
	IsActive       bool      `json:"is_active"`       // shows.is_active
	CreatedBy      uint64    `json:"created_by"`      // shows.created_by
	CreatedAt      time.Time `json:"created_at"`      // shows.created_at
	UpdatedAt      time.Time `json:"updated_at"`      // shows.updated_at
}
