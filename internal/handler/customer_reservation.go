package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/metrics"
	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/service"
)

// CustomerReservationHandler serves the customer side of reservations:
// booking a table, listing own reservations and self-cancel.
type CustomerReservationHandler struct {
	Reservations *repository.ReservationRepo
	Venues       *repository.VenueRepo
	Publisher    *service.EventPublisher
}

func NewCustomerReservationHandler(r *repository.ReservationRepo, v *repository.VenueRepo, p *service.EventPublisher) *CustomerReservationHandler {
	return &CustomerReservationHandler{Reservations: r, Venues: v, Publisher: p}
}

type createReservationReq struct {
	VenueID      uint64    `json:"VenueId"`
	Date         time.Time `json:"Date"`
	PartySize    uint16    `json:"PartySize"`
	ToleranceMin int       `json:"ToleranceMin"`
}

// Create books a table at an approved venue. The date must not be in the
// past; a date equal to now still counts as future.
func (h *CustomerReservationHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	if req.PartySize < 1 {
		return badRequest(c, "la cantidad de personas debe ser al menos 1")
	}
	now := time.Now().UTC()
	if req.Date.Before(now) {
		return badRequest(c, "la fecha de la reserva ya pasó")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, req.VenueID)
	if err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	if !v.Approved {
		return repoError(c, repository.ErrNotFound, "")
	}
	if uint32(req.PartySize) > v.Capacity {
		return badRequest(c, "la cantidad de personas supera la capacidad del comercio")
	}

	res := model.Reservation{
		UserID:    uid,
		VenueID:   req.VenueID,
		Date:      req.Date.UTC(),
		PartySize: req.PartySize,
		Tolerance: time.Duration(req.ToleranceMin) * time.Minute,
	}
	if err := h.Reservations.Create(ctx, &res); err != nil {
		return serverError(c, "no se pudo crear la reserva")
	}
	return c.JSON(http.StatusCreated, toReservationDTO(res, now))
}

// Mine lists the caller's reservations with their derived status and
// past/no-show flags.
func (h *CustomerReservationHandler) Mine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return serverError(c, "no se pudieron cargar las reservas")
	}
	return c.JSON(http.StatusOK, toReservationDTOs(list, time.Now().UTC()))
}

// Cancel is the customer's self-cancel of a pending reservation. It is
// recorded as a rejection with a fixed reason, so an already actioned
// reservation conflicts instead of silently flipping.
func (h *CustomerReservationHandler) Cancel(c echo.Context) error {
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

	res, err := h.Reservations.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar la reserva")
	}
	if res.UserID != uid {
		return repoError(c, repository.ErrForbidden, "")
	}
	if err := h.Reservations.Cancel(ctx, id); err != nil {
		return repoError(c, err, "no se pudo cancelar la reserva")
	}
	metrics.IncReservationDecision("cancelled")
	if v, err := h.Venues.GetByID(ctx, res.VenueID); err == nil {
		publishReservationDecided(c, h.Publisher, res, v, "REJECTED", model.CancelledByUser)
	}

	res, err = h.Reservations.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar la reserva")
	}
	return c.JSON(http.StatusOK, toReservationDTO(res, time.Now().UTC()))
}
