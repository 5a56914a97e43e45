// Package queue defines the decision events exchanged over the message
// broker and the background consumer that turns them into notifications.
package queue

// Queue names. One queue per event kind, durable.
const (
	ReservationDecidedQueue = "reservation.decided"
	VenueDecidedQueue       = "venue.decided"
)

// ReservationDecidedEvent is published when an owner or admin actions a
// reservation, or a customer cancels one. It carries enough for downstream
// consumers to notify the customer without querying the database.
type ReservationDecidedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	VenueID       uint64 `json:"venue_id"`
	VenueName     string `json:"venue_name"`
	Date          string `json:"date"`
	PartySize     uint16 `json:"party_size"`
	Status        string `json:"status"` // APPROVED or REJECTED
	Reason        string `json:"reason,omitempty"`
	DecidedAt     string `json:"decided_at"`
}

// VenueDecidedEvent is published when an admin approves or rejects a
// venue registration.
type VenueDecidedEvent struct {
	VenueID   uint64 `json:"venue_id"`
	OwnerID   uint64 `json:"owner_id"`
	VenueName string `json:"venue_name"`
	Status    string `json:"status"` // APPROVED or REJECTED
	Reason    string `json:"reason,omitempty"`
	DecidedAt string `json:"decided_at"`
}
