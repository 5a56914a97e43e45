package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mesalibre/mesalibre/internal/model"
)

// VenueTypeRepo reads the small `venue_types` lookup table.
type VenueTypeRepo struct{ DB *sql.DB }

func NewVenueTypeRepo(db *sql.DB) *VenueTypeRepo { return &VenueTypeRepo{DB: db} }

// List returns all venue types ordered by id.
func (r *VenueTypeRepo) List(ctx context.Context) ([]model.VenueType, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM venue_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.VenueType
	for rows.Next() {
		var t model.VenueType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Exists reports whether a venue type id is present.
func (r *VenueTypeRepo) Exists(ctx context.Context, id uint8) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM venue_types WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
