// Package status implements the approval state shared by venues, reservations
// and reviews. Every moderated record carries the same two raw columns, an
// approved flag and a nullable rejection reason, and collapses to exactly one
// of three states. The classifier is implemented once here instead of being
// repeated at each call site.
package status

import "time"

// State identifies the derived approval state of a moderated record.
type State string

const (
	// Pending means the record has not been actioned yet:
	// approved is false and no rejection reason has been recorded.
	Pending State = "PENDING"
	// Approved means the approved flag is set. A leftover rejection
	// reason is ignored; approval clears it by convention, not by a
	// database constraint.
	Approved State = "APPROVED"
	// Rejected means the record was declined (or self-cancelled) and
	// carries the reason it was declined.
	Rejected State = "REJECTED"
)

// Status is the classification result. Reason is only meaningful when
// State is Rejected.
type Status struct {
	State  State  `json:"State"`
	Reason string `json:"Reason,omitempty"`
}

// Classify maps the (approved, rejectionReason) pair to its state. The
// function is total: all four combinations of the two fields produce a
// result, with approved=true swallowing any stale reason.
func Classify(approved bool, reason *string) Status {
	switch {
	case approved:
		return Status{State: Approved}
	case reason != nil:
		return Status{State: Rejected, Reason: *reason}
	default:
		return Status{State: Pending}
	}
}

// IsPast reports whether t falls strictly before now. A timestamp equal to
// now counts as future; the single rule is "t >= now means future", applied
// uniformly wherever reservations are bucketed into past and upcoming.
func IsPast(t, now time.Time) bool {
	return t.Before(now)
}

// IsNoShow flags the distinguished pending-and-past combination: a
// reservation whose date has already passed without ever being actioned.
// Owners may still reject such reservations retroactively.
func IsNoShow(approved bool, reason *string, date, now time.Time) bool {
	return Classify(approved, reason).State == Pending && IsPast(date, now)
}
