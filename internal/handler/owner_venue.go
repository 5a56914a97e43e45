package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/cuit"
	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/repository"
)

// OwnerVenueHandler serves venue registration and management for users
// with the OWNER role.
type OwnerVenueHandler struct {
	Venues       *repository.VenueRepo
	Types        *repository.VenueTypeRepo
	Reservations *repository.ReservationRepo
}

func NewOwnerVenueHandler(v *repository.VenueRepo, t *repository.VenueTypeRepo, r *repository.ReservationRepo) *OwnerVenueHandler {
	return &OwnerVenueHandler{Venues: v, Types: t, Reservations: r}
}

type venueReq struct {
	TypeID     uint8   `json:"TypeId"`
	Name       string  `json:"Name"`
	Address    string  `json:"Address"`
	Phone      string  `json:"Phone"`
	Email      string  `json:"Email"`
	CUIT       string  `json:"Cuit"`
	Capacity   uint32  `json:"Capacity"`
	TableCount uint32  `json:"TableCount"`
	MusicGenre string  `json:"MusicGenre"`
	OpensAt    string  `json:"OpensAt"`
	ClosesAt   string  `json:"ClosesAt"`
	Photo      string  `json:"Photo"`
	Latitude   float64 `json:"Latitude"`
	Longitude  float64 `json:"Longitude"`
}

// validate normalizes the request and returns a message when a field is
// unacceptable. The CUIT is stored in its canonical dashed form.
func (req *venueReq) validate(ctx context.Context, types *repository.VenueTypeRepo) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if req.Name == "" || req.Address == "" {
		return "nombre y dirección son obligatorios", nil
	}
	if req.Capacity == 0 || req.TableCount == 0 {
		return "capacidad y cantidad de mesas deben ser mayores a cero", nil
	}
	if msg := cuit.Validate(req.CUIT); msg != "" {
		return msg, nil
	}
	req.CUIT = cuit.Format(req.CUIT)
	for _, v := range []string{req.OpensAt, req.ClosesAt} {
		if _, err := time.Parse("15:04", v); err != nil {
			return "horario invalido, usá HH:MM", nil
		}
	}
	ok, err := types.Exists(ctx, req.TypeID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "tipo de comercio inexistente", nil
	}
	return "", nil
}

func (req *venueReq) apply(v *model.Venue) {
	v.TypeID = req.TypeID
	v.Name = req.Name
	v.Address = req.Address
	v.Phone = req.Phone
	v.Email = req.Email
	v.CUIT = req.CUIT
	v.Capacity = req.Capacity
	v.TableCount = req.TableCount
	v.MusicGenre = req.MusicGenre
	v.OpensAt = req.OpensAt
	v.ClosesAt = req.ClosesAt
	v.Photo = req.Photo
	v.Latitude = req.Latitude
	v.Longitude = req.Longitude
}

// Create registers a new venue. It always starts pending admin approval.
func (h *OwnerVenueHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if msg, err := req.validate(ctx, h.Types); err != nil {
		return serverError(c, "no se pudo validar el comercio")
	} else if msg != "" {
		return badRequest(c, msg)
	}

	v := model.Venue{OwnerID: uid}
	req.apply(&v)
	if err := h.Venues.Create(ctx, &v); err != nil {
		return serverError(c, "no se pudo crear el comercio")
	}
	return c.JSON(http.StatusCreated, toVenueDTO(v))
}

// Update edits one of the caller's venues. Editing a rejected venue puts
// it back in the admin queue; an approved venue stays approved.
func (h *OwnerVenueHandler) Update(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if msg, err := req.validate(ctx, h.Types); err != nil {
		return serverError(c, "no se pudo validar el comercio")
	} else if msg != "" {
		return badRequest(c, msg)
	}

	v, err := h.Venues.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	req.apply(&v)
	if err := h.Venues.Update(ctx, &v); err != nil {
		return repoError(c, err, "no se pudo actualizar el comercio")
	}
	return c.JSON(http.StatusOK, toVenueDTO(v))
}

// Mine lists the caller's venues in every state.
func (h *OwnerVenueHandler) Mine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListByOwner(ctx, uid)
	if err != nil {
		return serverError(c, "no se pudieron cargar los comercios")
	}
	return c.JSON(http.StatusOK, toVenueDTOs(venues))
}

type venueCountsDTO struct {
	Pending  int `json:"Pending"`
	Approved int `json:"Approved"`
	Rejected int `json:"Rejected"`
	NoShows  int `json:"NoShows"`
}

// Counts returns the reservation dashboard numbers for one of the
// caller's venues.
func (h *OwnerVenueHandler) Counts(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Venues.GetByIDAndOwner(ctx, id, uid); err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	counts, err := h.Reservations.CountsForVenue(ctx, id, time.Now().UTC())
	if err != nil {
		return serverError(c, "no se pudieron calcular los totales")
	}
	return c.JSON(http.StatusOK, venueCountsDTO{
		Pending: counts.Pending, Approved: counts.Approved,
		Rejected: counts.Rejected, NoShows: counts.NoShows,
	})
}
