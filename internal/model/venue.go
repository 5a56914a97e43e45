package model

import (
	"time"

	"github.com/mesalibre/mesalibre/internal/status"
)

// VenueType is a row in the small `venue_types` lookup table
// (Bar, Restaurant, Nightclub, ...).
type VenueType struct {
	ID   uint8  // venue_types.id
	Name string // venue_types.name
}

// Venue represents a registered venue (comercio) owned by a user with the
// OWNER role. New venues are created pending and must be approved by an
// admin before they show up in public listings. Editing a rejected venue
// resets it to pending.
//
// Photo holds the base64-encoded image as submitted by the owner; the
// service stores it verbatim.
type Venue struct {
	ID              uint64    // venues.id
	OwnerID         uint64    // venues.owner_id
	TypeID          uint8     // venues.type_id (references venue_types.id)
	Name            string    // venues.name
	Address         string    // venues.address
	Phone           string    // venues.phone
	Email           string    // venues.email
	CUIT            string    // venues.cuit (formatted NN-NNNNNNNN-N)
	Capacity        uint32    // venues.capacity
	TableCount      uint32    // venues.table_count
	MusicGenre      string    // venues.music_genre
	OpensAt         string    // venues.opens_at   (HH:MM)
	ClosesAt        string    // venues.closes_at  (HH:MM)
	Photo           string    // venues.photo (base64, may be empty)
	Latitude        float64   // venues.latitude
	Longitude       float64   // venues.longitude
	Approved        bool      // venues.approved
	RejectionReason *string   // venues.rejection_reason (nullable)
	CreatedAt       time.Time // venues.created_at
	UpdatedAt       time.Time // venues.updated_at
}

// Status derives the venue's approval state.
func (v *Venue) Status() status.Status {
	return status.Classify(v.Approved, v.RejectionReason)
}
