package session

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesalibre/mesalibre/internal/metrics"
	"github.com/mesalibre/mesalibre/internal/model"
)

// UserSource is the slice of the user repository the reconciler needs.
type UserSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Outcome describes what a liveness check found for one session.
type Outcome string

const (
	// OutcomeInvalid means the account is gone or deactivated; the
	// session has been revoked and the client must log in again.
	OutcomeInvalid Outcome = "INVALID"
	// OutcomeUpdated means the session is still valid but server-side
	// fields (role, active flag or display name) drifted and have been
	// merged into the cached record.
	OutcomeUpdated Outcome = "UPDATED"
	// OutcomeUnchanged means nothing drifted; only the last-checked
	// timestamp moved.
	OutcomeUnchanged Outcome = "UNCHANGED"
)

// Reconciler periodically re-validates every live session against the
// users table. It runs as a single background task owned by main: first
// pass after a startup delay, then on a fixed interval, plus explicit
// kicks. An in-flight guard collapses overlapping triggers into one pass.
type Reconciler struct {
	store        *Store
	users        UserSource
	log          zerolog.Logger
	startupDelay time.Duration
	interval     time.Duration

	kick     chan struct{}
	inFlight atomic.Bool
}

// NewReconciler wires the reconciler; it does not start anything.
func NewReconciler(store *Store, users UserSource, log zerolog.Logger, startupDelay, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		store:        store,
		users:        users,
		log:          log,
		startupDelay: startupDelay,
		interval:     interval,
		kick:         make(chan struct{}, 1),
	}
}

// Kick requests an immediate pass. It never blocks; if a pass is already
// queued or running, the trigger is coalesced.
func (r *Reconciler) Kick() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled, executing reconcile passes on the
// configured schedule. It is meant to be launched in its own goroutine.
func (r *Reconciler) Run(ctx context.Context) {
	if r.startupDelay > 0 {
		select {
		case <-time.After(r.startupDelay):
		case <-ctx.Done():
			return
		}
	}
	r.reconcile(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		case <-r.kick:
			r.reconcile(ctx)
		}
	}
}

// reconcile walks every live session once. The compare-and-swap guard
// makes overlapping triggers no-ops until the running pass completes.
func (r *Reconciler) reconcile(ctx context.Context) {
	if !r.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer r.inFlight.Store(false)

	ids, err := r.store.UserIDs(ctx)
	if err != nil {
		// Transient: sessions stay valid when the store is unreachable.
		r.log.Warn().Err(err).Msg("session reconcile: store unavailable, skipping pass")
		return
	}
	for _, id := range ids {
		out, _, err := r.CheckUser(ctx, id)
		if err != nil {
			r.log.Warn().Err(err).Uint64("user_id", id).Msg("session reconcile: check failed, keeping session")
			continue
		}
		metrics.IncSessionReconcile(string(out))
		if out != OutcomeUnchanged {
			r.log.Info().Uint64("user_id", id).Str("outcome", string(out)).Msg("session reconciled")
		}
	}
}

// CheckUser re-validates a single session right now and returns the
// outcome plus the up-to-date record. It backs both the background pass
// and the validate-session endpoint.
func (r *Reconciler) CheckUser(ctx context.Context, userID uint64) (Outcome, Record, error) {
	rec, ok, err := r.store.Get(ctx, userID)
	if err != nil {
		return OutcomeUnchanged, Record{}, err
	}
	if !ok {
		rec = Record{UserID: userID}
	}

	u, err := r.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		_ = r.store.Revoke(ctx, userID)
		return OutcomeInvalid, Record{}, nil
	}
	if err != nil {
		return OutcomeUnchanged, rec, err
	}
	if !u.IsActive {
		_ = r.store.Revoke(ctx, userID)
		return OutcomeInvalid, Record{}, nil
	}

	role := model.RoleName(u.RoleID)
	changed := !ok || rec.Role != role || rec.DisplayName != u.DisplayName || !rec.Active
	rec.Role = role
	rec.DisplayName = u.DisplayName
	rec.Active = true
	rec.LastChecked = time.Now().UTC()
	if err := r.store.Put(ctx, rec); err != nil {
		return OutcomeUnchanged, rec, err
	}
	if changed {
		return OutcomeUpdated, rec, nil
	}
	return OutcomeUnchanged, rec, nil
}
