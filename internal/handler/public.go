package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/service"
)

// PublicHandler serves the unauthenticated browse endpoints: venue types,
// approved venue listings, venue detail, approved reviews and the discovery
// merge with external places.
type PublicHandler struct {
	Types   *repository.VenueTypeRepo
	Venues  *repository.VenueRepo
	Reviews *repository.ReviewRepo
	Places  *service.PlacesClient
}

func NewPublicHandler(t *repository.VenueTypeRepo, v *repository.VenueRepo, rv *repository.ReviewRepo, p *service.PlacesClient) *PublicHandler {
	return &PublicHandler{Types: t, Venues: v, Reviews: rv, Places: p}
}

type venueTypeDTO struct {
	ID   uint8  `json:"Id"`
	Name string `json:"Name"`
}

// ListTypes returns the venue type lookup table.
func (h *PublicHandler) ListTypes(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	types, err := h.Types.List(ctx)
	if err != nil {
		return serverError(c, "no se pudieron cargar los tipos")
	}
	out := make([]venueTypeDTO, 0, len(types))
	for _, t := range types {
		out = append(out, venueTypeDTO{ID: t.ID, Name: t.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// ListVenues returns approved venues, optionally filtered by free-text
// query (?q=), type (?type=) and music genre (?genre=).
func (h *PublicHandler) ListVenues(c echo.Context) error {
	var f repository.ApprovedFilter
	f.Query = c.QueryParam("q")
	f.Genre = c.QueryParam("genre")
	if t := c.QueryParam("type"); t != "" {
		n, err := strconv.ParseUint(t, 10, 8)
		if err != nil {
			return badRequest(c, "type invalido")
		}
		f.TypeID = uint8(n)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.Venues.ListApproved(ctx, f)
	if err != nil {
		return serverError(c, "no se pudieron cargar los comercios")
	}
	return c.JSON(http.StatusOK, toVenueDTOs(venues))
}

// GetVenue returns one approved venue by id. Pending and rejected venues
// are invisible here; only the owner and admins can see them.
func (h *PublicHandler) GetVenue(c echo.Context) error {
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
	if !v.Approved {
		return repoError(c, repository.ErrNotFound, "")
	}
	return c.JSON(http.StatusOK, toVenueDTO(v))
}

// ListVenueReviews returns a venue's approved reviews.
func (h *PublicHandler) ListVenueReviews(c echo.Context) error {
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
	if !v.Approved {
		return repoError(c, repository.ErrNotFound, "")
	}
	reviews, err := h.Reviews.ListApprovedByVenue(ctx, id)
	if err != nil {
		return serverError(c, "no se pudieron cargar las reseñas")
	}
	return c.JSON(http.StatusOK, toReviewDTOs(reviews))
}

// Discover merges locally registered approved venues with nearby external
// places around ?lat=&lng= (optional ?radius= in meters). Registered
// venues win name collisions. An external lookup failure degrades to the
// local listing only.
func (h *PublicHandler) Discover(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return badRequest(c, "lat invalida")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return badRequest(c, "lng invalida")
	}
	radius := 0
	if r := c.QueryParam("radius"); r != "" {
		if radius, err = strconv.Atoi(r); err != nil || radius < 0 {
			return badRequest(c, "radius invalido")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	local, err := h.Venues.ListApproved(ctx, repository.ApprovedFilter{})
	if err != nil {
		return serverError(c, "no se pudieron cargar los comercios")
	}
	external, err := h.Places.Nearby(ctx, lat, lng, radius)
	if err != nil {
		c.Logger().Warnf("places lookup failed: %v", err)
		external = nil
	}
	return c.JSON(http.StatusOK, service.MergeDiscovery(local, external))
}
