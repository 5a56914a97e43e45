package session

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesalibre/mesalibre/internal/metrics"
	"github.com/mesalibre/mesalibre/internal/model"
)

// blockingSource counts lookups and can hold them until released.
type blockingSource struct {
	calls   atomic.Int64
	release chan struct{}
	user    model.User
	err     error
}

func (b *blockingSource) GetByID(ctx context.Context, id uint64) (model.User, error) {
	b.calls.Add(1)
	if b.release != nil {
		<-b.release
	}
	return b.user, b.err
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Hour)
}

func activeUser(id uint64) model.User {
	return model.User{ID: id, DisplayName: "Ana", RoleID: model.RoleCustomer, IsActive: true}
}

func TestReconcileOverlappingTriggersCollapse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, Record{UserID: 7, Role: "CUSTOMER", Active: true}))

	src := &blockingSource{release: make(chan struct{}), user: activeUser(7)}
	r := NewReconciler(store, src, zerolog.Nop(), 0, time.Minute)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.reconcile(ctx)
	}()

	// Wait until the first pass is inside the user lookup.
	require.Eventually(t, func() bool { return src.calls.Load() == 1 },
		time.Second, time.Millisecond)

	// Overlapping triggers while the first pass is in flight must be no-ops.
	r.reconcile(ctx)
	r.reconcile(ctx)
	assert.Equal(t, int64(1), src.calls.Load(), "exactly one lookup while a pass is in flight")

	close(src.release)
	wg.Wait()
	assert.Equal(t, int64(1), src.calls.Load())

	// With the guard released, the next trigger runs a fresh pass.
	r.reconcile(ctx)
	assert.Equal(t, int64(2), src.calls.Load())
}

// Reads the reconcile outcome counter from the default registry so the
// test observes exactly what /metrics would expose.
func reconcileOutcomeCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "mesalibre_session_reconcile_outcomes_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lbl := range m.GetLabel() {
				if lbl.GetName() == "outcome" && lbl.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestReconcileCountsOutcomes(t *testing.T) {
	metrics.Register()
	store := newTestStore(t)
	ctx := context.Background()

	// Stored role drifted from the users table, so the pass reports UPDATED.
	require.NoError(t, store.Put(ctx, Record{UserID: 3, Role: "OWNER", DisplayName: "Ana", Active: true}))
	r := NewReconciler(store, &blockingSource{user: activeUser(3)}, zerolog.Nop(), 0, time.Minute)

	before := reconcileOutcomeCount(t, string(OutcomeUpdated))
	r.reconcile(ctx)
	assert.Equal(t, before+1, reconcileOutcomeCount(t, string(OutcomeUpdated)))

	// A second pass finds nothing to merge.
	unchangedBefore := reconcileOutcomeCount(t, string(OutcomeUnchanged))
	r.reconcile(ctx)
	assert.Equal(t, unchangedBefore+1, reconcileOutcomeCount(t, string(OutcomeUnchanged)))
}

func TestCheckUserOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted user revokes session", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Put(ctx, Record{UserID: 1, Role: "CUSTOMER", Active: true}))
		src := &blockingSource{err: sql.ErrNoRows}
		r := NewReconciler(store, src, zerolog.Nop(), 0, time.Minute)

		out, _, err := r.CheckUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalid, out)
		_, ok, err := store.Get(ctx, 1)
		require.NoError(t, err)
		assert.False(t, ok, "session record must be gone")
	})

	t.Run("deactivated user revokes session", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Put(ctx, Record{UserID: 1, Role: "CUSTOMER", Active: true}))
		u := activeUser(1)
		u.IsActive = false
		r := NewReconciler(store, &blockingSource{user: u}, zerolog.Nop(), 0, time.Minute)

		out, _, err := r.CheckUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, OutcomeInvalid, out)
	})

	t.Run("role drift merges server fields", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, store.Put(ctx, Record{UserID: 1, Role: "CUSTOMER", DisplayName: "Ana", Active: true}))
		u := activeUser(1)
		u.RoleID = model.RoleOwner
		r := NewReconciler(store, &blockingSource{user: u}, zerolog.Nop(), 0, time.Minute)

		out, rec, err := r.CheckUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, out)
		assert.Equal(t, "OWNER", rec.Role)

		got, ok, err := store.Get(ctx, 1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "OWNER", got.Role)
	})

	t.Run("no drift only bumps timestamp", func(t *testing.T) {
		store := newTestStore(t)
		stale := time.Now().UTC().Add(-time.Hour)
		require.NoError(t, store.Put(ctx, Record{
			UserID: 1, Role: "CUSTOMER", DisplayName: "Ana", Active: true, LastChecked: stale,
		}))
		r := NewReconciler(store, &blockingSource{user: activeUser(1)}, zerolog.Nop(), 0, time.Minute)

		out, rec, err := r.CheckUser(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnchanged, out)
		assert.True(t, rec.LastChecked.After(stale))
	})
}

func TestStoreDisabledWithoutRedis(t *testing.T) {
	store := NewStore(nil, time.Hour)
	ctx := context.Background()

	assert.False(t, store.Enabled())
	assert.NoError(t, store.Put(ctx, Record{UserID: 9}))
	_, ok, err := store.Get(ctx, 9)
	assert.NoError(t, err)
	assert.False(t, ok)
	ids, err := store.UserIDs(ctx)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}
