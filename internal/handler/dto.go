package handler

import (
	"time"

	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/status"
)

// Response shapes shared by the public, owner and admin endpoints. The
// Status block is always derived server-side; clients never see the raw
// approved/rejection_reason pair.

type venueDTO struct {
	ID         uint64        `json:"Id"`
	OwnerID    uint64        `json:"OwnerId"`
	TypeID     uint8         `json:"TypeId"`
	Name       string        `json:"Name"`
	Address    string        `json:"Address"`
	Phone      string        `json:"Phone"`
	Email      string        `json:"Email"`
	CUIT       string        `json:"Cuit"`
	Capacity   uint32        `json:"Capacity"`
	TableCount uint32        `json:"TableCount"`
	MusicGenre string        `json:"MusicGenre"`
	OpensAt    string        `json:"OpensAt"`
	ClosesAt   string        `json:"ClosesAt"`
	Photo      string        `json:"Photo,omitempty"`
	Latitude   float64       `json:"Latitude"`
	Longitude  float64       `json:"Longitude"`
	Status     status.Status `json:"Status"`
	CreatedAt  time.Time     `json:"CreatedAt"`
}

func toVenueDTO(v model.Venue) venueDTO {
	return venueDTO{
		ID: v.ID, OwnerID: v.OwnerID, TypeID: v.TypeID, Name: v.Name,
		Address: v.Address, Phone: v.Phone, Email: v.Email, CUIT: v.CUIT,
		Capacity: v.Capacity, TableCount: v.TableCount, MusicGenre: v.MusicGenre,
		OpensAt: v.OpensAt, ClosesAt: v.ClosesAt, Photo: v.Photo,
		Latitude: v.Latitude, Longitude: v.Longitude,
		Status: v.Status(), CreatedAt: v.CreatedAt,
	}
}

func toVenueDTOs(vs []model.Venue) []venueDTO {
	out := make([]venueDTO, 0, len(vs))
	for _, v := range vs {
		out = append(out, toVenueDTO(v))
	}
	return out
}

type reservationDTO struct {
	ID           uint64        `json:"Id"`
	UserID       uint64        `json:"UserId"`
	VenueID      uint64        `json:"VenueId"`
	Date         time.Time     `json:"Date"`
	PartySize    uint16        `json:"PartySize"`
	ToleranceMin int           `json:"ToleranceMin"`
	Status       status.Status `json:"Status"`
	IsPast       bool          `json:"IsPast"`
	IsNoShow     bool          `json:"IsNoShow"`
	CreatedAt    time.Time     `json:"CreatedAt"`
}

func toReservationDTO(r model.Reservation, now time.Time) reservationDTO {
	return reservationDTO{
		ID: r.ID, UserID: r.UserID, VenueID: r.VenueID, Date: r.Date,
		PartySize: r.PartySize, ToleranceMin: int(r.Tolerance.Minutes()),
		Status: r.Status(), IsPast: r.IsPast(now), IsNoShow: r.IsNoShow(now),
		CreatedAt: r.CreatedAt,
	}
}

func toReservationDTOs(rs []model.Reservation, now time.Time) []reservationDTO {
	out := make([]reservationDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReservationDTO(r, now))
	}
	return out
}

type reviewDTO struct {
	ID        uint64        `json:"Id"`
	UserID    uint64        `json:"UserId"`
	VenueID   uint64        `json:"VenueId"`
	Rating    uint8         `json:"Rating"`
	Comment   string        `json:"Comment"`
	Status    status.Status `json:"Status"`
	CreatedAt time.Time     `json:"CreatedAt"`
}

func toReviewDTO(r model.Review) reviewDTO {
	return reviewDTO{
		ID: r.ID, UserID: r.UserID, VenueID: r.VenueID,
		Rating: r.Rating, Comment: r.Comment,
		Status: r.Status(), CreatedAt: r.CreatedAt,
	}
}

func toReviewDTOs(rs []model.Review) []reviewDTO {
	out := make([]reviewDTO, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReviewDTO(r))
	}
	return out
}
