package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mesalibre/mesalibre/internal/model"
)

// ReviewRepo encapsulates review persistence and the queries backing the
// eligibility cooldown.
type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewCols = `id, user_id, venue_id, rating, comment, approved,
	rejection_reason, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (model.Review, error) {
	var rv model.Review
	err := row.Scan(&rv.ID, &rv.UserID, &rv.VenueID, &rv.Rating, &rv.Comment,
		&rv.Approved, &rv.RejectionReason, &rv.CreatedAt, &rv.UpdatedAt)
	return rv, err
}

// Create inserts a pending review and populates its ID.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	out, err := r.DB.ExecContext(ctx,
		"INSERT INTO reviews (user_id, venue_id, rating, comment) VALUES (?,?,?,?)",
		rv.UserID, rv.VenueID, rv.Rating, rv.Comment)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	rv.Approved = false
	rv.RejectionReason = nil
	return nil
}

// GetByID fetches a single review.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := scanReview(r.DB.QueryRowContext(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return rv, ErrNotFound
	}
	return rv, err
}

// ListApprovedByVenue returns a venue's approved reviews, newest first.
func (r *ReviewRepo) ListApprovedByVenue(ctx context.Context, venueID uint64) ([]model.Review, error) {
	return r.list(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE venue_id=? AND approved=1 ORDER BY created_at DESC",
		venueID)
}

// ListByUser returns all of a user's reviews in any state, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
	return r.list(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE user_id=? ORDER BY created_at DESC",
		userID)
}

// ListPending returns reviews awaiting moderation, oldest first.
func (r *ReviewRepo) ListPending(ctx context.Context) ([]model.Review, error) {
	return r.list(ctx,
		"SELECT "+reviewCols+" FROM reviews WHERE approved=0 AND rejection_reason IS NULL ORDER BY created_at")
}

// LatestForUserVenue returns the creation time of the user's most recent
// review of the venue, in any moderation state. ok is false when the user
// has never reviewed the venue.
func (r *ReviewRepo) LatestForUserVenue(ctx context.Context, userID, venueID uint64) (t time.Time, ok bool, err error) {
	err = r.DB.QueryRowContext(ctx,
		"SELECT created_at FROM reviews WHERE user_id=? AND venue_id=? ORDER BY created_at DESC LIMIT 1",
		userID, venueID).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Approve marks a pending review approved; actioning twice yields ErrConflict.
func (r *ReviewRepo) Approve(ctx context.Context, id uint64) error {
	return r.decide(ctx, id,
		"UPDATE reviews SET approved=1, rejection_reason=NULL WHERE id=? AND approved=0 AND rejection_reason IS NULL")
}

// Reject marks a pending review rejected with a reason.
func (r *ReviewRepo) Reject(ctx context.Context, id uint64, reason string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE reviews SET approved=0, rejection_reason=? WHERE id=? AND approved=0 AND rejection_reason IS NULL",
		reason, id)
	if err != nil {
		return err
	}
	return r.decided(ctx, id, res)
}

func (r *ReviewRepo) list(ctx context.Context, q string, args ...any) ([]model.Review, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *ReviewRepo) decide(ctx context.Context, id uint64, q string) error {
	res, err := r.DB.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	return r.decided(ctx, id, res)
}

func (r *ReviewRepo) decided(ctx context.Context, id uint64, res sql.Result) error {
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
