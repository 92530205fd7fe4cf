package model

import "time"

// User roles.  ADMIN may create shows, list every booking of a show and
// trigger manual sweeps; USER may reserve seats and view their own bookings.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User mirrors the users table.  Passwords are stored only as bcrypt
// hashes; the raw password never leaves the auth handler.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email (unique, lower-cased)
	PasswordHash string    // users.password_hash
	Role         string    // users.role (USER or ADMIN)
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
