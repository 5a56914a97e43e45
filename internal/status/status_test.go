package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strptr(s string) *string { return &s }

func TestClassifyTotality(t *testing.T) {
	reason := strptr("sin lugar")

	cases := []struct {
		name     string
		approved bool
		reason   *string
		want     State
	}{
		{"pending", false, nil, Pending},
		{"approved", true, nil, Approved},
		{"rejected", false, reason, Rejected},
		{"approved with stale reason", true, reason, Approved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.approved, tc.reason)
			assert.Equal(t, tc.want, got.State)
		})
	}
}

func TestPendingIffUnactioned(t *testing.T) {
	// Pending holds exactly when approved=false and reason=nil.
	assert.Equal(t, Pending, Classify(false, nil).State)
	assert.NotEqual(t, Pending, Classify(true, nil).State)
	assert.NotEqual(t, Pending, Classify(false, strptr("x")).State)
	assert.NotEqual(t, Pending, Classify(true, strptr("x")).State)
}

func TestRejectedCarriesReason(t *testing.T) {
	got := Classify(false, strptr("local cerrado"))
	assert.Equal(t, Rejected, got.State)
	assert.Equal(t, "local cerrado", got.Reason)

	// Approved swallows the reason entirely.
	got = Classify(true, strptr("local cerrado"))
	assert.Equal(t, Approved, got.State)
	assert.Empty(t, got.Reason)
}

func TestIsPastBoundary(t *testing.T) {
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	assert.True(t, IsPast(now.Add(-time.Millisecond), now), "one ms ago is past")
	assert.False(t, IsPast(now, now), "exactly now counts as future")
	assert.False(t, IsPast(now.Add(time.Millisecond), now), "one ms ahead is future")
}

func TestIsNoShow(t *testing.T) {
	now := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)

	assert.True(t, IsNoShow(false, nil, yesterday, now), "pending and past must be flagged")
	assert.False(t, IsNoShow(false, nil, tomorrow, now), "pending and future is just pending")
	assert.False(t, IsNoShow(true, nil, yesterday, now), "approved reservations are never no-shows")
	assert.False(t, IsNoShow(false, strptr("no vino"), yesterday, now), "already rejected is not actionable")
}
