package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mesalibre/mesalibre/internal/model"
)

// ReservationRepo encapsulates reservation persistence. Reservations are
// actioned at most once; the WHERE clauses on the decision updates enforce
// that at the SQL level so a double click can never flip an already
// actioned row.
type ReservationRepo struct{ DB *sql.DB }

func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationCols = `id, user_id, venue_id, reservation_date, party_size,
	tolerance_min, approved, rejection_reason, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res     model.Reservation
		tolMins uint32
	)
	err := row.Scan(&res.ID, &res.UserID, &res.VenueID, &res.Date, &res.PartySize,
		&tolMins, &res.Approved, &res.RejectionReason, &res.CreatedAt, &res.UpdatedAt)
	res.Tolerance = time.Duration(tolMins) * time.Minute
	return res, err
}

// Create inserts a pending reservation and populates its ID.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	if res.Tolerance <= 0 {
		res.Tolerance = model.DefaultTolerance
	}
	out, err := r.DB.ExecContext(ctx, `INSERT INTO reservations
		(user_id, venue_id, reservation_date, party_size, tolerance_min)
		VALUES (?,?,?,?,?)`,
		res.UserID, res.VenueID, res.Date, res.PartySize, int(res.Tolerance.Minutes()))
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Approved = false
	res.RejectionReason = nil
	return nil
}

// GetByID fetches a single reservation.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.DB.QueryRowContext(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return res, ErrNotFound
	}
	return res, err
}

// ListByUser returns a customer's reservations, newest date first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE user_id=? ORDER BY reservation_date DESC",
		userID)
}

// ListByVenueForOwner returns all reservations of a venue after verifying
// that the venue belongs to ownerID. ErrNotFound is returned for unknown
// venues and ErrForbidden when the venue is owned by someone else.
func (r *ReservationRepo) ListByVenueForOwner(ctx context.Context, venueID, ownerID uint64) ([]model.Reservation, error) {
	var venueOwner uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT owner_id FROM venues WHERE id=? LIMIT 1", venueID).Scan(&venueOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if venueOwner != ownerID {
		return nil, ErrForbidden
	}
	return r.list(ctx,
		"SELECT "+reservationCols+" FROM reservations WHERE venue_id=? ORDER BY reservation_date DESC",
		venueID)
}

// Approve marks a pending reservation approved. The update only matches
// unactioned rows: approving twice, or approving a rejected reservation,
// yields ErrConflict.
func (r *ReservationRepo) Approve(ctx context.Context, id uint64) error {
	return r.decide(ctx, id, "UPDATE reservations SET approved=1, rejection_reason=NULL WHERE id=? AND approved=0 AND rejection_reason IS NULL")
}

// Reject marks a pending reservation rejected with a reason. Rejecting a
// past pending reservation is allowed (the retroactive no-show case).
func (r *ReservationRepo) Reject(ctx context.Context, id uint64, reason string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reservations SET approved=0, rejection_reason=? WHERE id=? AND approved=0 AND rejection_reason IS NULL",
		reason, id)
	if err != nil {
		return err
	}
	return r.decided(ctx, id, res)
}

// Cancel is the customer's self-cancel: identical to a rejection carrying
// the fixed reason string.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64) error {
	return r.Reject(ctx, id, model.CancelledByUser)
}

// Delete removes a reservation outright. Admin only.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM reservations WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasApprovedAtVenueSince reports whether the user holds an approved
// reservation at the venue dated inside [since, until]. It backs the
// review eligibility check.
func (r *ReservationRepo) HasApprovedAtVenueSince(ctx context.Context, userID, venueID uint64, since, until time.Time) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM reservations
		WHERE user_id=? AND venue_id=? AND approved=1
		  AND reservation_date BETWEEN ? AND ? LIMIT 1`,
		userID, venueID, since, until).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// VenueCounts aggregates a venue's reservations for the owner dashboard.
type VenueCounts struct {
	Pending  int
	Approved int
	Rejected int
	NoShows  int // pending with a date already in the past
}

// CountsForVenue tallies reservation states for one venue. The no-show
// bucket uses the same rule as the classifier: dates before now are past.
func (r *ReservationRepo) CountsForVenue(ctx context.Context, venueID uint64, now time.Time) (VenueCounts, error) {
	var c VenueCounts
	err := r.DB.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(approved=0 AND rejection_reason IS NULL), 0),
		COALESCE(SUM(approved=1), 0),
		COALESCE(SUM(approved=0 AND rejection_reason IS NOT NULL), 0),
		COALESCE(SUM(approved=0 AND rejection_reason IS NULL AND reservation_date < ?), 0)
		FROM reservations WHERE venue_id=?`,
		now, venueID).Scan(&c.Pending, &c.Approved, &c.Rejected, &c.NoShows)
	return c, err
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) decide(ctx context.Context, id uint64, q string) error {
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return r.decided(ctx, id, res)
}

// decided distinguishes "already actioned" from "does not exist" when a
// decision update matched no rows.
func (r *ReservationRepo) decided(ctx context.Context, id uint64, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}
