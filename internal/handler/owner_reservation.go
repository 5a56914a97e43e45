package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/metrics"
	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/queue"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/service"
)

// OwnerReservationHandler lets venue owners review and action the
// reservations made at their venues.
type OwnerReservationHandler struct {
	Reservations *repository.ReservationRepo
	Venues       *repository.VenueRepo
	Publisher    *service.EventPublisher
}

func NewOwnerReservationHandler(r *repository.ReservationRepo, v *repository.VenueRepo, p *service.EventPublisher) *OwnerReservationHandler {
	return &OwnerReservationHandler{Reservations: r, Venues: v, Publisher: p}
}

// ListByVenue returns every reservation of one of the caller's venues,
// with the derived no-show flag so the dashboard can highlight pending
// reservations whose date already passed.
func (h *OwnerReservationHandler) ListByVenue(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByVenueForOwner(ctx, venueID, uid)
	if err != nil {
		return repoError(c, err, "no se pudieron cargar las reservas")
	}
	return c.JSON(http.StatusOK, toReservationDTOs(list, time.Now().UTC()))
}

type rejectReq struct {
	Reason string `json:"Reason"`
}

// Approve accepts a pending reservation. Approving twice, or approving
// one that was already rejected or cancelled, returns a conflict.
func (h *OwnerReservationHandler) Approve(c echo.Context) error {
	return h.decideReservation(c, true, "")
}

// Reject declines a pending reservation with a reason. A pending
// reservation whose date already passed may still be rejected; that is
// how owners record a no-show.
func (h *OwnerReservationHandler) Reject(c echo.Context) error {
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return badRequest(c, "el motivo es obligatorio")
	}
	return h.decideReservation(c, false, req.Reason)
}

func (h *OwnerReservationHandler) decideReservation(c echo.Context, approve bool, reason string) error {
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
	// Admins may action any reservation; owners only those at their venues.
	var v model.Venue
	if role, _ := c.Get("role").(string); role == "ADMIN" {
		v, err = h.Venues.GetByID(ctx, res.VenueID)
	} else {
		v, err = h.Venues.GetByIDAndOwner(ctx, res.VenueID, uid)
	}
	if err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}

	if approve {
		err = h.Reservations.Approve(ctx, id)
	} else {
		err = h.Reservations.Reject(ctx, id, reason)
	}
	if err != nil {
		return repoError(c, err, "no se pudo procesar la reserva")
	}

	decision := "approved"
	statusName := "APPROVED"
	if !approve {
		decision = "rejected"
		statusName = "REJECTED"
	}
	metrics.IncReservationDecision(decision)
	publishReservationDecided(c, h.Publisher, res, v, statusName, reason)

	res, err = h.Reservations.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar la reserva")
	}
	return c.JSON(http.StatusOK, toReservationDTO(res, time.Now().UTC()))
}

// publishReservationDecided fires the decision event without blocking the
// response on the broker.
func publishReservationDecided(c echo.Context, pub *service.EventPublisher, res model.Reservation, v model.Venue, status, reason string) {
	ev := queue.ReservationDecidedEvent{
		ReservationID: res.ID,
		UserID:        res.UserID,
		VenueID:       v.ID,
		VenueName:     v.Name,
		Date:          res.Date.UTC().Format(time.RFC3339),
		PartySize:     res.PartySize,
		Status:        status,
		Reason:        reason,
		DecidedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pub.PublishReservationDecided(ctx, ev); err != nil {
			c.Logger().Warnf("publish reservation.decided failed: %v", err)
		}
	}()
}
