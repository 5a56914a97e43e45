// Package service holds business logic that spans repositories: the review
// eligibility gate, the venue discovery merge and the decision event
// publisher.
package service

import (
	"context"
	"time"
)

// ReviewWindow is both the trailing window in which an approved
// reservation entitles a customer to review, and the cooldown between two
// reviews of the same venue.
const ReviewWindow = 7 * 24 * time.Hour

// Eligibility denial messages. The reservation message wins when both
// predicates would fail, because the cooldown check is never attempted
// once the reservation check fails.
const (
	MsgNeedReservation = "necesitás una reserva aprobada en los últimos 7 días para reseñar este comercio"
	MsgCooldown        = "ya reseñaste este comercio hace menos de 7 días"
	MsgRetry           = "no pudimos verificar tu elegibilidad, probá de nuevo"
)

// ReservationChecker is the slice of the reservation repository the gate
// needs.
type ReservationChecker interface {
	HasApprovedAtVenueSince(ctx context.Context, userID, venueID uint64, since, until time.Time) (bool, error)
}

// ReviewChecker is the slice of the review repository the gate needs.
type ReviewChecker interface {
	LatestForUserVenue(ctx context.Context, userID, venueID uint64) (time.Time, bool, error)
}

// EligibilityResult is the combined gate verdict. Reason is only set when
// CanReview is false.
type EligibilityResult struct {
	CanReview bool   `json:"CanReview"`
	Reason    string `json:"Reason,omitempty"`
}

// EligibilityService decides whether a customer may review a venue.
type EligibilityService struct {
	reservations ReservationChecker
	reviews      ReviewChecker
	now          func() time.Time
}

// NewEligibilityService wires the gate. The clock is injectable for tests;
// pass nil to use wall time.
func NewEligibilityService(res ReservationChecker, rev ReviewChecker, now func() time.Time) *EligibilityService {
	if now == nil {
		now = time.Now
	}
	return &EligibilityService{reservations: res, reviews: rev, now: now}
}

// CanReview evaluates the two predicates with short-circuit AND:
//  1. the user holds an approved reservation at the venue dated within the
//     trailing 7 days;
//  2. their most recent prior review of the venue, if any, is at least
//     7 days old.
//
// The second check is not attempted when the first fails, so the denial
// message always names the predicate that actually failed. Any storage
// error fails closed with a generic retry message.
func (s *EligibilityService) CanReview(ctx context.Context, userID, venueID uint64) EligibilityResult {
	now := s.now().UTC()

	has, err := s.reservations.HasApprovedAtVenueSince(ctx, userID, venueID, now.Add(-ReviewWindow), now)
	if err != nil {
		return EligibilityResult{CanReview: false, Reason: MsgRetry}
	}
	if !has {
		return EligibilityResult{CanReview: false, Reason: MsgNeedReservation}
	}

	last, exists, err := s.reviews.LatestForUserVenue(ctx, userID, venueID)
	if err != nil {
		return EligibilityResult{CanReview: false, Reason: MsgRetry}
	}
	if exists && now.Sub(last) < ReviewWindow {
		return EligibilityResult{CanReview: false, Reason: MsgCooldown}
	}
	return EligibilityResult{CanReview: true}
}
