package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/middleware"
	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/queue"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/service"
	"github.com/mesalibre/mesalibre/internal/session"
)

// AdminHandler serves the admin console: user management, the venue and
// review moderation queues, and reservation removal.
type AdminHandler struct {
	Users        *repository.UserRepo
	Tokens       *repository.TokenRepo
	Venues       *repository.VenueRepo
	Reviews      *repository.ReviewRepo
	Reservations *repository.ReservationRepo
	Sessions     *session.Store
	Reconciler   *session.Reconciler
	Publisher    *service.EventPublisher
	Cache        *middleware.CacheInvalidator
}

func NewAdminHandler(u *repository.UserRepo, t *repository.TokenRepo, v *repository.VenueRepo,
	rv *repository.ReviewRepo, rs *repository.ReservationRepo,
	s *session.Store, rec *session.Reconciler, p *service.EventPublisher,
	cache *middleware.CacheInvalidator) *AdminHandler {
	return &AdminHandler{
		Users: u, Tokens: t, Venues: v, Reviews: rv, Reservations: rs,
		Sessions: s, Reconciler: rec, Publisher: p, Cache: cache,
	}
}

type adminUserDTO struct {
	ID          uint64    `json:"Id"`
	Email       string    `json:"Email"`
	DisplayName string    `json:"DisplayName"`
	Role        string    `json:"Role"`
	IsActive    bool      `json:"IsActive"`
	CreatedAt   time.Time `json:"CreatedAt"`
}

// ListUsers returns every account for the admin table.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return serverError(c, "no se pudieron cargar los usuarios")
	}
	out := make([]adminUserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserDTO{
			ID: u.ID, Email: u.Email, DisplayName: u.DisplayName,
			Role: model.RoleName(u.RoleID), IsActive: u.IsActive, CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type updateUserReq struct {
	Role     string `json:"Role"`
	IsActive bool   `json:"IsActive"`
}

// UpdateUser changes a user's role and active flag. Deactivation revokes
// every refresh token and the live session immediately; a role change is
// picked up by the session reconciler, which is kicked so the change
// propagates without waiting for the next periodic pass.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	roleID := model.RoleID(strings.ToUpper(strings.TrimSpace(req.Role)))
	if roleID == 0 {
		return badRequest(c, "rol desconocido")
	}
	if uid, _ := currentUser(c); uid == id && (!req.IsActive || roleID != model.RoleAdmin) {
		return badRequest(c, "no podés modificar tu propia cuenta de administrador")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateAdminFields(ctx, id, roleID, req.IsActive); err != nil {
		return repoError(c, err, "no se pudo actualizar el usuario")
	}
	if !req.IsActive {
		_ = h.Tokens.RevokeAllForUser(ctx, id)
		_ = h.Sessions.Revoke(ctx, id)
	}
	h.Reconciler.Kick()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return serverError(c, "no se pudo cargar el usuario")
	}
	return c.JSON(http.StatusOK, adminUserDTO{
		ID: u.ID, Email: u.Email, DisplayName: u.DisplayName,
		Role: model.RoleName(u.RoleID), IsActive: u.IsActive, CreatedAt: u.CreatedAt,
	})
}

// PendingVenues returns the venue moderation queue, oldest first.
func (h *AdminHandler) PendingVenues(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListPending(ctx)
	if err != nil {
		return serverError(c, "no se pudieron cargar los comercios pendientes")
	}
	return c.JSON(http.StatusOK, toVenueDTOs(venues))
}

// ApproveVenue publishes a venue to the public listing.
func (h *AdminHandler) ApproveVenue(c echo.Context) error {
	return h.decideVenue(c, true, "")
}

// RejectVenue declines a venue registration with a reason. The owner can
// edit and resubmit, which puts the venue back in this queue.
func (h *AdminHandler) RejectVenue(c echo.Context) error {
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return badRequest(c, "el motivo es obligatorio")
	}
	return h.decideVenue(c, false, req.Reason)
}

func (h *AdminHandler) decideVenue(c echo.Context, approve bool, reason string) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.Venues.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	if approve {
		err = h.Venues.Approve(ctx, id)
	} else {
		err = h.Venues.Reject(ctx, id, reason)
	}
	if err != nil {
		return repoError(c, err, "no se pudo procesar el comercio")
	}
	if err := h.Cache.PurgeRoutes(ctx, "/api/Comercios", "/api/Comercios/:id"); err != nil {
		c.Logger().Warnf("cache purge after venue decision failed: %v", err)
	}

	statusName := "APPROVED"
	if !approve {
		statusName = "REJECTED"
	}
	ev := queue.VenueDecidedEvent{
		VenueID:   v.ID,
		OwnerID:   v.OwnerID,
		VenueName: v.Name,
		Status:    statusName,
		Reason:    reason,
		DecidedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Publisher.PublishVenueDecided(pctx, ev); err != nil {
			c.Logger().Warnf("publish venue.decided failed: %v", err)
		}
	}()

	v, err = h.Venues.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	return c.JSON(http.StatusOK, toVenueDTO(v))
}

// PendingReviews returns the review moderation queue, oldest first.
func (h *AdminHandler) PendingReviews(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reviews, err := h.Reviews.ListPending(ctx)
	if err != nil {
		return serverError(c, "no se pudieron cargar las reseñas pendientes")
	}
	return c.JSON(http.StatusOK, toReviewDTOs(reviews))
}

// ApproveReview publishes a review on the venue's public page.
func (h *AdminHandler) ApproveReview(c echo.Context) error {
	return h.decideReview(c, true, "")
}

// RejectReview declines a review with a reason.
func (h *AdminHandler) RejectReview(c echo.Context) error {
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return badRequest(c, "el motivo es obligatorio")
	}
	return h.decideReview(c, false, req.Reason)
}

func (h *AdminHandler) decideReview(c echo.Context, approve bool, reason string) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if approve {
		err = h.Reviews.Approve(ctx, id)
	} else {
		err = h.Reviews.Reject(ctx, id, reason)
	}
	if err != nil {
		return repoError(c, err, "no se pudo procesar la reseña")
	}
	if err := h.Cache.PurgeRoutes(ctx, "/api/Comercios/:id/Resenias"); err != nil {
		c.Logger().Warnf("cache purge after review decision failed: %v", err)
	}
	rv, err := h.Reviews.GetByID(ctx, id)
	if err != nil {
		return repoError(c, err, "no se pudo cargar la reseña")
	}
	return c.JSON(http.StatusOK, toReviewDTO(rv))
}

// DeleteReservation removes a reservation outright, in any state.
func (h *AdminHandler) DeleteReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badRequest(c, "id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Reservations.Delete(ctx, id); err != nil {
		return repoError(c, err, "no se pudo eliminar la reserva")
	}
	return c.NoContent(http.StatusNoContent)
}
