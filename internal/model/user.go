package model

import "time"

// Role IDs as stored in the roles table. The JWT carries the role name;
// storage and the admin API work with the numeric ID.
const (
	RoleAdmin    uint8 = 1
	RoleOwner    uint8 = 2
	RoleCustomer uint8 = 3
)

// RoleName maps a numeric role ID to the name carried in JWT claims.
func RoleName(id uint8) string {
	switch id {
	case RoleAdmin:
		return "ADMIN"
	case RoleOwner:
		return "OWNER"
	case RoleCustomer:
		return "CUSTOMER"
	default:
		return ""
	}
}

// RoleID is the inverse of RoleName; unknown names map to 0.
func RoleID(name string) uint8 {
	switch name {
	case "ADMIN":
		return RoleAdmin
	case "OWNER":
		return RoleOwner
	case "CUSTOMER":
		return RoleCustomer
	default:
		return 0
	}
}

// User represents a row in the `users` table. PasswordHash is empty for
// accounts provisioned through Google sign-in.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash ('' for Google accounts)
	DisplayName  string    // users.display_name
	RoleID       uint8     // users.role_id (references roles.id)
	IsActive     bool      // users.is_active
	GoogleSub    *string   // users.google_sub (nullable Google account id)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
