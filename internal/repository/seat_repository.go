package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/ilqarli/show-booking/internal/model"
)

// SeatRepo manages persistence for seats.  Only the reservation and sweep
// transactions flip is_booked; every flip increments version.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// CreateBulkTx inserts the full seat inventory for a show in a single
// statement.  Timestamps default in the DB; IDs are not populated back.
// Passing an empty slice has no effect and returns nil.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	var q strings.Builder
	q.WriteString(`INSERT INTO seats (show_id, row_label, seat_number, is_booked, version) VALUES `)
	args := make([]any, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			q.WriteString(",")
		}
		q.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, s.ShowID, s.Row, s.SeatNumber, s.IsBooked, s.Version)
	}
	_, err := tx.ExecContext(ctx, q.String(), args...)
	return err
}

// ListByShow returns all seats of a show ordered by row and seat number.
// This is a lock-free read; callers accept the read-skew window until the
// next sweep runs.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	const q = `SELECT id, show_id, row_label, seat_number, is_booked, version, created_at, updated_at
	           FROM seats WHERE show_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ShowID, &s.Row, &s.SeatNumber, &s.IsBooked, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// LockByIDsTx acquires exclusive locks on exactly the requested seat rows
// scoped to the show.  Seat IDs are sorted ascending and the SELECT
// carries ORDER BY id so every transaction acquires overlapping seat
// locks in the same order; MySQL does not guarantee lock order for a
// bare IN clause, and two transactions locking disjoint-but-overlapping
// subsets in different orders can deadlock.
//
// The returned slice may be shorter than ids when some IDs do not belong
// to the show; callers treat that as an unknown-seats failure.
func (r *SeatRepo) LockByIDsTx(ctx context.Context, tx *sql.Tx, showID uint64, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return []model.Seat{}, nil
	}
	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	placeholders := strings.Repeat("?,", len(sorted))
	placeholders = placeholders[:len(placeholders)-1]
	q := `SELECT id, show_id, row_label, seat_number, is_booked, version, created_at, updated_at
	      FROM seats WHERE id IN (` + placeholders + `) AND show_id = ? ORDER BY id FOR UPDATE`
	args := make([]any, 0, len(sorted)+1)
	for _, id := range sorted {
		args = append(args, id)
	}
	args = append(args, showID)

	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0, len(sorted))
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ShowID, &s.Row, &s.SeatNumber, &s.IsBooked, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// SetBookedTx flips is_booked for the given seats and increments their
// version counters.  The caller must already hold the row locks.
func (r *SeatRepo) SetBookedTx(ctx context.Context, tx *sql.Tx, ids []uint64, booked bool) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	q := `UPDATE seats SET is_booked = ?, version = version + 1 WHERE id IN (` + placeholders + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, booked)
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}
