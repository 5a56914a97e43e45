package model

import (
	"time"

	"github.com/mesalibre/mesalibre/internal/status"
)

// CancelledByUser is the fixed rejection reason recorded when a customer
// cancels their own pending reservation. Self-cancel is implemented exactly
// like a rejection carrying this reason.
const CancelledByUser = "Cancelada por el usuario"

// DefaultTolerance is how long a table is held past the reservation time
// when the request does not specify a tolerance window.
const DefaultTolerance = 15 * time.Minute

// Reservation records a customer's request for a table at a venue. It is
// created pending and actioned exactly once: approved or rejected by the
// venue owner or an admin, or cancelled by the customer. A pending
// reservation whose date has passed is the actionable no-show case.
type Reservation struct {
	ID              uint64        // reservations.id
	UserID          uint64        // reservations.user_id
	VenueID         uint64        // reservations.venue_id
	Date            time.Time     // reservations.reservation_date
	PartySize       uint16        // reservations.party_size (>= 1)
	Tolerance       time.Duration // reservations.tolerance_min (stored in minutes)
	Approved        bool          // reservations.approved
	RejectionReason *string       // reservations.rejection_reason (nullable)
	CreatedAt       time.Time     // reservations.created_at
	UpdatedAt       time.Time     // reservations.updated_at
}

// Status derives the reservation's approval state.
func (r *Reservation) Status() status.Status {
	return status.Classify(r.Approved, r.RejectionReason)
}

// IsPast reports whether the reservation date has passed (date >= now is
// future).
func (r *Reservation) IsPast(now time.Time) bool {
	return status.IsPast(r.Date, now)
}

// IsNoShow reports whether this reservation is the distinguished
// pending-and-past case that an owner may still reject retroactively.
func (r *Reservation) IsNoShow(now time.Time) bool {
	return status.IsNoShow(r.Approved, r.RejectionReason, r.Date, now)
}
