package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/service"
)

// ReviewHandler serves the customer review endpoints: the eligibility
// check, review submission and the caller's own reviews.
type ReviewHandler struct {
	Reviews     *repository.ReviewRepo
	Venues      *repository.VenueRepo
	Eligibility *service.EligibilityService
}

func NewReviewHandler(r *repository.ReviewRepo, v *repository.VenueRepo, e *service.EligibilityService) *ReviewHandler {
	return &ReviewHandler{Reviews: r, Venues: v, Eligibility: e}
}

// CanReview reports whether the caller may review the venue right now.
// The UI calls this before showing the review form; Create re-checks, so
// the answer is advisory, not a capability grant.
func (h *ReviewHandler) CanReview(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	venueID, err := strconv.ParseUint(c.QueryParam("venue_id"), 10, 64)
	if err != nil || venueID == 0 {
		return badRequest(c, "venue_id invalido")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Venues.GetByID(ctx, venueID); err != nil {
		return repoError(c, err, "no se pudo cargar el comercio")
	}
	return c.JSON(http.StatusOK, h.Eligibility.CanReview(ctx, uid, venueID))
}

type createReviewReq struct {
	VenueID uint64 `json:"VenueId"`
	Rating  uint8  `json:"Rating"`
	Comment string `json:"Comment"`
}

// Create submits a review. The eligibility gate is enforced here again
// regardless of what CanReview said earlier; reviews start pending admin
// moderation.
func (h *ReviewHandler) Create(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	var req createReviewReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return badRequest(c, "la calificación debe estar entre 1 y 5")
	}
	req.Comment = strings.TrimSpace(req.Comment)
	if utf8.RuneCountInString(req.Comment) < model.MinCommentLen {
		return badRequest(c, fmt.Sprintf("el comentario debe tener al menos %d caracteres", model.MinCommentLen))
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
	if verdict := h.Eligibility.CanReview(ctx, uid, req.VenueID); !verdict.CanReview {
		return c.JSON(http.StatusForbidden, apiError{Error: verdict.Reason, Code: codeForbidden})
	}

	rv := model.Review{UserID: uid, VenueID: req.VenueID, Rating: req.Rating, Comment: req.Comment}
	if err := h.Reviews.Create(ctx, &rv); err != nil {
		return serverError(c, "no se pudo crear la reseña")
	}
	return c.JSON(http.StatusCreated, toReviewDTO(rv))
}

// Mine lists the caller's reviews in every moderation state.
func (h *ReviewHandler) Mine(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reviews.ListByUser(ctx, uid)
	if err != nil {
		return serverError(c, "no se pudieron cargar las reseñas")
	}
	return c.JSON(http.StatusOK, toReviewDTOs(list))
}
