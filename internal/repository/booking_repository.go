package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ilqarli/show-booking/internal/model"
)

// BookingRepo manages persistence for bookings and the booked_seats
// junction table.  State transitions run inside caller-owned
// transactions; reads used by the listing endpoints are lock-free.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, show_id, user_id, status, total_seats, failure_reason, expires_at, confirmed_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var reason sql.NullString
	var expires, confirmed sql.NullTime
	err := row.Scan(&b.ID, &b.ShowID, &b.UserID, &b.Status, &b.TotalSeats,
		&reason, &expires, &confirmed, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		s := reason.String
		b.FailureReason = &s
	}
	if expires.Valid {
		t := expires.Time
		b.ExpiresAt = &t
	}
	if confirmed.Valid {
		t := confirmed.Time
		b.ConfirmedAt = &t
	}
	return &b, nil
}

// CreateTx inserts a PENDING booking with the given expiry deadline and
// returns its generated ID.  The booking is expected to be promoted to
// CONFIRMED before the transaction commits; the deadline only matters if
// the process dies in between.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, showID, userID uint64, totalSeats uint32, expiresAt time.Time) (uint64, error) {
	const q = `INSERT INTO bookings (show_id, user_id, status, total_seats, expires_at) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, showID, userID, model.BookingPending, totalSeats, expiresAt.UTC())
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ConfirmTx transitions a PENDING booking to CONFIRMED and records the
// confirmation time.  The expiry deadline is cleared; CONFIRMED is
// terminal and the sweeper never touches it.
func (r *BookingRepo) ConfirmTx(ctx context.Context, tx *sql.Tx, id uint64, at time.Time) error {
	const q = `UPDATE bookings SET status = ?, confirmed_at = ?, expires_at = NULL WHERE id = ? AND status = ?`
	_, err := tx.ExecContext(ctx, q, model.BookingConfirmed, at.UTC(), id, model.BookingPending)
	return err
}

// FailTx transitions a PENDING booking to FAILED with the given reason.
// FAILED is terminal.
func (r *BookingRepo) FailTx(ctx context.Context, tx *sql.Tx, id uint64, reason string) error {
	const q = `UPDATE bookings SET status = ?, failure_reason = ?, expires_at = NULL WHERE id = ? AND status = ?`
	_, err := tx.ExecContext(ctx, q, model.BookingFailed, reason, id, model.BookingPending)
	return err
}

// AddBookedSeatsTx inserts one junction row per seat for the booking in a
// single statement.
func (r *BookingRepo) AddBookedSeatsTx(ctx context.Context, tx *sql.Tx, bookingID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	var q strings.Builder
	q.WriteString(`INSERT INTO booked_seats (booking_id, seat_id) VALUES `)
	args := make([]any, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			q.WriteString(",")
		}
		q.WriteString("(?, ?)")
		args = append(args, bookingID, sid)
	}
	_, err := tx.ExecContext(ctx, q.String(), args...)
	return err
}

// SeatIDsTx returns the seat IDs claimed by a booking, within the
// caller's transaction.
func (r *BookingRepo) SeatIDsTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]uint64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT seat_id FROM booked_seats WHERE booking_id = ?`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListExpiredPendingIDs returns the IDs of PENDING bookings whose expiry
// deadline has passed.  This is an unlocked read; each booking is
// re-checked under lock by LockPendingTx before it is reclaimed, so a
// booking confirmed in the gap is skipped.
func (r *BookingRepo) ListExpiredPendingIDs(ctx context.Context, now time.Time) ([]uint64, error) {
	const q = `SELECT id FROM bookings WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?`
	rows, err := r.db.QueryContext(ctx, q, model.BookingPending, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LockPendingTx locks a booking row and returns it only if it is still
// PENDING and expired at the given instant.  The (nil, nil) return means
// another transaction already settled the booking; sweep steps treat
// that as a no-op, which makes the sweep idempotent.
func (r *BookingRepo) LockPendingTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE id = ? AND status = ? AND expires_at IS NOT NULL AND expires_at < ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id, model.BookingPending, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// GetByID retrieves a single booking.  Returns ErrBookingNotFound when
// no row matches.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// BookingDetail is a booking hydrated with its show and the concrete
// seats claimed through the junction table.  UserEmail is populated only
// on the admin per-show listing.
type BookingDetail struct {
	model.Booking
	UserEmail string       `json:"user_email,omitempty"`
	Show      *model.Show  `json:"show,omitempty"`
	Seats     []model.Seat `json:"seats"`
}

// ListByUser returns all bookings of a user, newest first, each hydrated
// with show and seat details.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListByShow returns all bookings of a show, newest first, with the
// booking user's email attached.  Admin-only surface.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.show_id, b.user_id, b.status, b.total_seats, b.failure_reason,
	                  b.expires_at, b.confirmed_at, b.created_at, b.updated_at, u.email
	           FROM bookings b
	           LEFT JOIN users u ON u.id = b.user_id
	           WHERE b.show_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var reason sql.NullString
		var expires, confirmed sql.NullTime
		var email sql.NullString
		if err := rows.Scan(&d.ID, &d.ShowID, &d.UserID, &d.Status, &d.TotalSeats,
			&reason, &expires, &confirmed, &d.CreatedAt, &d.UpdatedAt, &email); err != nil {
			return nil, err
		}
		if reason.Valid {
			s := reason.String
			d.FailureReason = &s
		}
		if expires.Valid {
			t := expires.Time
			d.ExpiresAt = &t
		}
		if confirmed.Valid {
			t := confirmed.Time
			d.ConfirmedAt = &t
		}
		if email.Valid {
			d.UserEmail = email.String
		}
		d.Seats = []model.Seat{}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, details)
}

// Hydrate fills Show and Seats on a single booking.  Used by the
// get-by-id endpoint.
func (r *BookingRepo) Hydrate(ctx context.Context, b *model.Booking) (*BookingDetail, error) {
	out, err := r.hydrate(ctx, []BookingDetail{{Booking: *b, Seats: []model.Seat{}}})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, args ...any) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, BookingDetail{Booking: *b, Seats: []model.Seat{}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.hydrate(ctx, details)
}

// hydrate attaches show and seat rows to each detail.  Seats for every
// booking are fetched in one IN query keyed by booking ID; shows are
// fetched once per distinct show.
func (r *BookingRepo) hydrate(ctx context.Context, details []BookingDetail) ([]BookingDetail, error) {
	if len(details) == 0 {
		return details, nil
	}
	index := make(map[uint64]int, len(details))
	showIDs := make(map[uint64]struct{})
	placeholders := make([]string, 0, len(details))
	args := make([]any, 0, len(details))
	for i, d := range details {
		index[d.ID] = i
		showIDs[d.ShowID] = struct{}{}
		placeholders = append(placeholders, "?")
		args = append(args, d.ID)
	}

	q := `SELECT bs.booking_id, s.id, s.show_id, s.row_label, s.seat_number, s.is_booked, s.version, s.created_at, s.updated_at
	      FROM booked_seats bs
	      JOIN seats s ON s.id = bs.seat_id
	      WHERE bs.booking_id IN (` + strings.Join(placeholders, ",") + `)
	      ORDER BY bs.booking_id, s.row_label, s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var bid uint64
		var s model.Seat
		if err := rows.Scan(&bid, &s.ID, &s.ShowID, &s.Row, &s.SeatNumber, &s.IsBooked, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			details[i].Seats = append(details[i].Seats, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shows := make(map[uint64]*model.Show, len(showIDs))
	for id := range showIDs {
		s, err := scanShow(r.db.QueryRowContext(ctx, `SELECT `+showColumns+` FROM shows WHERE id = ?`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue // show deleted out-of-band; leave nil
			}
			return nil, err
		}
		shows[id] = s
	}
	for i := range details {
		details[i].Show = shows[details[i].ShowID]
	}
	return details, nil
}
