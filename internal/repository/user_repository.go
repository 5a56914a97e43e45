package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/utils"
)

// UserRepo persists accounts in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id, email, password_hash, display_name, role_id, is_active, google_sub, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName,
		&u.RoleID, &u.IsActive, &u.GoogleSub, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a password-based user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName string, roleID uint8, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name, role_id) VALUES (?,?,?,?)",
		email, hash, displayName, roleID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateGoogle inserts an account provisioned from a verified Google ID
// token. Such accounts have no password hash and always start as customers.
func (r *UserRepo) CreateGoogle(ctx context.Context, email, displayName, googleSub string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name, role_id, google_sub) VALUES (?,'',?,?,?)",
		email, displayName, model.RoleCustomer, googleSub)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByGoogleSub fetches a user by its Google account id.
func (r *UserRepo) GetByGoogleSub(ctx context.Context, sub string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE google_sub=? LIMIT 1", sub))
}

// LinkGoogleSub records the Google account id on an existing password
// account so later Google logins find it by sub directly. A row already
// linked to a different sub is left alone.
func (r *UserRepo) LinkGoogleSub(ctx context.Context, id uint64, sub string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET google_sub=? WHERE id=? AND google_sub IS NULL", sub, id)
	return err
}

// List returns all users ordered by id, for the admin table.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userCols+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateAdminFields changes a user's role and active flag. It is the
// admin-only mutation path; ErrNotFound is returned when no row matches.
func (r *UserRepo) UpdateAdminFields(ctx context.Context, id uint64, roleID uint8, isActive bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role_id=?, is_active=? WHERE id=?", roleID, isActive, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
	}
	return nil
}
