package model

import (
	"time"

	"github.com/mesalibre/mesalibre/internal/status"
)

// MinCommentLen is the minimum accepted review comment length.
const MinCommentLen = 10

// Review is a customer's rating of a venue. Reviews go through the same
// pending/approved/rejected moderation as venues and reservations; only
// approved reviews are shown publicly.
type Review struct {
	ID              uint64    // reviews.id
	UserID          uint64    // reviews.user_id
	VenueID         uint64    // reviews.venue_id
	Rating          uint8     // reviews.rating (1..5)
	Comment         string    // reviews.comment
	Approved        bool      // reviews.approved
	RejectionReason *string   // reviews.rejection_reason (nullable)
	CreatedAt       time.Time // reviews.created_at
	UpdatedAt       time.Time // reviews.updated_at
}

// Status derives the review's moderation state.
func (r *Review) Status() status.Status {
	return status.Classify(r.Approved, r.RejectionReason)
}
