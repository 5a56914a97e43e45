package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mesalibre/mesalibre/internal/model"
)

// VenueRepo encapsulates all database queries related to venues.
type VenueRepo struct{ DB *sql.DB }

func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{DB: db} }

const venueCols = `id, owner_id, type_id, name, address, phone, email, cuit,
	capacity, table_count, music_genre, opens_at, closes_at, photo,
	latitude, longitude, approved, rejection_reason, created_at, updated_at`

func scanVenue(row interface{ Scan(...any) error }) (model.Venue, error) {
	var v model.Venue
	err := row.Scan(&v.ID, &v.OwnerID, &v.TypeID, &v.Name, &v.Address, &v.Phone,
		&v.Email, &v.CUIT, &v.Capacity, &v.TableCount, &v.MusicGenre,
		&v.OpensAt, &v.ClosesAt, &v.Photo, &v.Latitude, &v.Longitude,
		&v.Approved, &v.RejectionReason, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Create inserts a new venue. Venues always start pending regardless of
// what the caller put in Approved/RejectionReason.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO venues
		(owner_id, type_id, name, address, phone, email, cuit, capacity,
		 table_count, music_genre, opens_at, closes_at, photo, latitude, longitude)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		v.OwnerID, v.TypeID, v.Name, v.Address, v.Phone, v.Email, v.CUIT,
		v.Capacity, v.TableCount, v.MusicGenre, v.OpensAt, v.ClosesAt,
		v.Photo, v.Latitude, v.Longitude)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	v.Approved = false
	v.RejectionReason = nil
	return nil
}

// GetByID fetches a venue regardless of owner.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (model.Venue, error) {
	v, err := scanVenue(r.DB.QueryRowContext(ctx,
		"SELECT "+venueCols+" FROM venues WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return v, ErrNotFound
	}
	return v, err
}

// GetByIDAndOwner fetches a venue only if it belongs to the given owner.
func (r *VenueRepo) GetByIDAndOwner(ctx context.Context, id, ownerID uint64) (model.Venue, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return v, err
	}
	if v.OwnerID != ownerID {
		return model.Venue{}, ErrForbidden
	}
	return v, nil
}

// ListByOwner returns all venues for a specific owner ordered by id,
// including pending and rejected ones.
func (r *VenueRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Venue, error) {
	return r.list(ctx, "SELECT "+venueCols+" FROM venues WHERE owner_id=? ORDER BY id", ownerID)
}

// ApprovedFilter narrows the public venue listing.
type ApprovedFilter struct {
	Query  string // matches name or address, case-insensitive
	TypeID uint8  // 0 means any type
	Genre  string // exact music genre, empty means any
}

// ListApproved returns approved venues for public browsing, optionally
// filtered by search text, type and music genre.
func (r *VenueRepo) ListApproved(ctx context.Context, f ApprovedFilter) ([]model.Venue, error) {
	q := "SELECT " + venueCols + " FROM venues WHERE approved=1"
	args := []any{}
	if s := strings.TrimSpace(f.Query); s != "" {
		q += " AND (LOWER(name) LIKE ? OR LOWER(address) LIKE ?)"
		pat := "%" + strings.ToLower(s) + "%"
		args = append(args, pat, pat)
	}
	if f.TypeID != 0 {
		q += " AND type_id=?"
		args = append(args, f.TypeID)
	}
	if g := strings.TrimSpace(f.Genre); g != "" {
		q += " AND music_genre=?"
		args = append(args, g)
	}
	q += " ORDER BY name"
	return r.list(ctx, q, args...)
}

// ListPending returns venues awaiting an admin decision, oldest first.
func (r *VenueRepo) ListPending(ctx context.Context) ([]model.Venue, error) {
	return r.list(ctx,
		"SELECT "+venueCols+" FROM venues WHERE approved=0 AND rejection_reason IS NULL ORDER BY created_at")
}

// Update overwrites the editable fields of a venue. Editing a rejected
// venue resets it to pending; an approved venue keeps its approval.
func (r *VenueRepo) Update(ctx context.Context, v *model.Venue) error {
	cur, err := r.GetByID(ctx, v.ID)
	if err != nil {
		return err
	}
	approved := cur.Approved
	reason := cur.RejectionReason
	if !cur.Approved && cur.RejectionReason != nil {
		approved = false
		reason = nil
	}
	_, err = r.DB.ExecContext(ctx, `UPDATE venues SET
		type_id=?, name=?, address=?, phone=?, email=?, cuit=?, capacity=?,
		table_count=?, music_genre=?, opens_at=?, closes_at=?, photo=?,
		latitude=?, longitude=?, approved=?, rejection_reason=?
		WHERE id=?`,
		v.TypeID, v.Name, v.Address, v.Phone, v.Email, v.CUIT, v.Capacity,
		v.TableCount, v.MusicGenre, v.OpensAt, v.ClosesAt, v.Photo,
		v.Latitude, v.Longitude, approved, reason, v.ID)
	if err != nil {
		return err
	}
	v.Approved = approved
	v.RejectionReason = reason
	return nil
}

// Approve marks a venue approved and clears any rejection reason.
func (r *VenueRepo) Approve(ctx context.Context, id uint64) error {
	return r.decide(ctx, id, true, nil)
}

// Reject marks a venue rejected with the given reason.
func (r *VenueRepo) Reject(ctx context.Context, id uint64, reason string) error {
	return r.decide(ctx, id, false, &reason)
}

func (r *VenueRepo) decide(ctx context.Context, id uint64, approved bool, reason *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE venues SET approved=?, rejection_reason=? WHERE id=?",
		approved, reason, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *VenueRepo) list(ctx context.Context, q string, args ...any) ([]model.Venue, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
