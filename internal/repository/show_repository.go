// Package repository contains raw-SQL data access for the booking domain.
// Repositories hold a *sql.DB and expose ...Tx variants that run inside a
// caller-owned transaction; the caller commits or rolls back.  All
// timestamps are stored and compared in UTC.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ilqarli/show-booking/internal/model"
)

// ShowRepo manages persistence for shows, including the capacity counter
// that the reservation and sweep transactions adjust under row lock.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB { return r.db }

const showColumns = `id, name, description, start_time, total_seats, available_seats, is_active, created_by, created_at, updated_at`

func scanShow(row interface{ Scan(...any) error }) (*model.Show, error) {
	var s model.Show
	var desc sql.NullString
	err := row.Scan(&s.ID, &s.Name, &desc, &s.StartTime, &s.TotalSeats,
		&s.AvailableSeats, &s.IsActive, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		d := desc.String
		s.Description = &d
	}
	return &s, nil
}

// CreateTx inserts a new show within the provided transaction and assigns
// the generated ID back to the struct.  AvailableSeats is initialised to
// TotalSeats; the caller is expected to insert the seat inventory in the
// same transaction.
func (r *ShowRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Show) error {
	const q = `INSERT INTO shows (name, description, start_time, total_seats, available_seats, is_active, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.Name, s.Description, s.StartTime.UTC(),
		s.TotalSeats, s.TotalSeats, s.IsActive, s.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	// Query the row back to pick up DB defaults (timestamps).
	got, err := scanShow(tx.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound when no
// matching row exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	s, err := scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	return s, err
}

// ListAll returns every show, newest first.  Used by the admin surface,
// which also sees inactive shows.
func (r *ShowRepo) ListAll(ctx context.Context) ([]model.Show, error) {
	return r.list(ctx, `SELECT `+showColumns+` FROM shows ORDER BY created_at DESC`)
}

// ListActive returns active shows that have not yet started, soonest
// first.  Callers should run a sweep before this read so availability
// counters reflect reclaimed seats.
func (r *ShowRepo) ListActive(ctx context.Context, now time.Time) ([]model.Show, error) {
	return r.list(ctx, `SELECT `+showColumns+` FROM shows WHERE is_active = TRUE AND start_time > ? ORDER BY start_time ASC`, now.UTC())
}

func (r *ShowRepo) list(ctx context.Context, q string, args ...any) ([]model.Show, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]model.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, *s)
	}
	return shows, rows.Err()
}

// LockTx acquires an exclusive lock on the show row for the duration of
// the transaction.  This is the first lock of every reservation attempt
// and of every per-booking sweep step, which serialises all mutation of
// the capacity counter.  Returns ErrShowNotFound when the row is absent.
func (r *ShowRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ? FOR UPDATE`
	s, err := scanShow(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	return s, err
}

// AddAvailableTx adjusts the available_seats counter by delta (negative
// to consume capacity, positive to return it).  The caller must hold the
// show row lock; the ledger invariant 0 <= available <= total is enforced
// by the callers' fail-fast checks before this runs.
func (r *ShowRepo) AddAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int32) error {
	const q = `UPDATE shows SET available_seats = available_seats + ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, delta, id)
	return err
}

// SetActive flips the is_active flag.  Deactivated shows reject new
// reservations with a ShowInactive error but keep their bookings.
func (r *ShowRepo) SetActive(ctx context.Context, id uint64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE shows SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "no such show" from "already in that state".
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT TRUE FROM shows WHERE id = ?`, id).Scan(&exists); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowNotFound
			}
			return err
		}
	}
	return nil
}
