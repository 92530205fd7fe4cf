package repository

import "errors"

// Sentinel errors shared across repositories.  They let handlers and
// services distinguish failure modes without string matching on driver
// errors.
var (
	// ErrShowNotFound indicates that a show was not located in the DB.
	ErrShowNotFound = errors.New("show not found")
	// ErrBookingNotFound indicates that a booking was not located in the DB.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrEmailExists is returned by user creation when the email is taken.
	ErrEmailExists = errors.New("email already exists")
)
