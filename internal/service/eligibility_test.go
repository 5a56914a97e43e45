package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockReservations struct{ mock.Mock }

func (m *mockReservations) HasApprovedAtVenueSince(ctx context.Context, userID, venueID uint64, since, until time.Time) (bool, error) {
	args := m.Called(ctx, userID, venueID, since, until)
	return args.Bool(0), args.Error(1)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) LatestForUserVenue(ctx context.Context, userID, venueID uint64) (time.Time, bool, error) {
	args := m.Called(ctx, userID, venueID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func TestCanReviewWithRecentReservationAndNoPriorReview(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	res := new(mockReservations)
	rev := new(mockReviews)
	res.On("HasApprovedAtVenueSince", mock.Anything, uint64(1), uint64(2), now.Add(-ReviewWindow), now).
		Return(true, nil)
	rev.On("LatestForUserVenue", mock.Anything, uint64(1), uint64(2)).
		Return(time.Time{}, false, nil)

	s := NewEligibilityService(res, rev, func() time.Time { return now })
	got := s.CanReview(context.Background(), 1, 2)

	assert.True(t, got.CanReview)
	assert.Empty(t, got.Reason)
}

func TestCanReviewBlockedByCooldown(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	res := new(mockReservations)
	rev := new(mockReviews)
	res.On("HasApprovedAtVenueSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	// Prior review two days ago: inside the 7-day cooldown.
	rev.On("LatestForUserVenue", mock.Anything, uint64(1), uint64(2)).
		Return(now.AddDate(0, 0, -2), true, nil)

	s := NewEligibilityService(res, rev, func() time.Time { return now })
	got := s.CanReview(context.Background(), 1, 2)

	assert.False(t, got.CanReview)
	assert.Equal(t, MsgCooldown, got.Reason)
}

func TestCanReviewCooldownElapsed(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	res := new(mockReservations)
	rev := new(mockReviews)
	res.On("HasApprovedAtVenueSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(true, nil)
	rev.On("LatestForUserVenue", mock.Anything, uint64(1), uint64(2)).
		Return(now.AddDate(0, 0, -8), true, nil)

	s := NewEligibilityService(res, rev, func() time.Time { return now })
	assert.True(t, s.CanReview(context.Background(), 1, 2).CanReview)
}

func TestCanReviewShortCircuitsWithoutReservation(t *testing.T) {
	res := new(mockReservations)
	rev := new(mockReviews)
	res.On("HasApprovedAtVenueSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, nil)

	s := NewEligibilityService(res, rev, nil)
	got := s.CanReview(context.Background(), 1, 2)

	assert.False(t, got.CanReview)
	assert.Equal(t, MsgNeedReservation, got.Reason)
	// The cooldown predicate must not run at all.
	rev.AssertNotCalled(t, "LatestForUserVenue", mock.Anything, mock.Anything, mock.Anything)
}

func TestCanReviewFailsClosedOnStorageError(t *testing.T) {
	res := new(mockReservations)
	rev := new(mockReviews)
	res.On("HasApprovedAtVenueSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("connection reset"))

	s := NewEligibilityService(res, rev, nil)
	got := s.CanReview(context.Background(), 1, 2)

	assert.False(t, got.CanReview)
	assert.Equal(t, MsgRetry, got.Reason)
	rev.AssertNotCalled(t, "LatestForUserVenue", mock.Anything, mock.Anything, mock.Anything)
}
