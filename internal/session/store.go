// Package session tracks issued sessions in Redis and reconciles them
// against the users table in the background. Access tokens carry role and
// activity claims that can drift after an admin edits the account; the
// store is the authority the middleware consults, and the reconciler keeps
// it in step with the database without waiting for token expiry.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sess:"

// Record is the cached view of one user's session.
type Record struct {
	UserID      uint64    `json:"user_id"`
	Role        string    `json:"role"`
	DisplayName string    `json:"display_name"`
	Active      bool      `json:"active"`
	LastChecked time.Time `json:"last_checked"`
}

// Store persists session records in Redis. A nil Redis client disables the
// store: writes are dropped and lookups report "no record", which callers
// treat as token-only auth.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore wraps a Redis client; rdb may be nil.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis backend is attached.
func (s *Store) Enabled() bool { return s.rdb != nil }

// Put writes (or overwrites) a session record, refreshing its TTL.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if s.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key(rec.UserID), payload, s.ttl).Err()
}

// Get fetches a session record. ok is false when no record exists (expired,
// revoked, or the store is disabled).
func (s *Store) Get(ctx context.Context, userID uint64) (Record, bool, error) {
	if s.rdb == nil {
		return Record{}, false, nil
	}
	payload, err := s.rdb.Get(ctx, key(userID)).Bytes()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Revoke deletes a session record, forcing logout on the next request.
func (s *Store) Revoke(ctx context.Context, userID uint64) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, key(userID)).Err()
}

// UserIDs scans all live session keys.
func (s *Store) UserIDs(ctx context.Context) ([]uint64, error) {
	if s.rdb == nil {
		return nil, nil
	}
	var (
		out    []uint64
		cursor uint64
	)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			raw := strings.TrimPrefix(k, keyPrefix)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				continue
			}
			out = append(out, id)
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

func key(userID uint64) string {
	return fmt.Sprintf("%s%d", keyPrefix, userID)
}
