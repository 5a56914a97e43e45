// Package router wires every HTTP endpoint to its handler and middleware
// chain. Resource paths are the Spanish names the clients use; sub-actions
// (mine, approve, pending, ...) are English.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mesalibre/mesalibre/internal/config"
	"github.com/mesalibre/mesalibre/internal/handler"
	"github.com/mesalibre/mesalibre/internal/middleware"
	"github.com/mesalibre/mesalibre/internal/session"
)

// Handlers collects the endpoint implementations Register needs.
type Handlers struct {
	Auth        *handler.AuthHandler
	Public      *handler.PublicHandler
	OwnerVenues *handler.OwnerVenueHandler
	OwnerRes    *handler.OwnerReservationHandler
	CustomerRes *handler.CustomerReservationHandler
	Reviews     *handler.ReviewHandler
	Admin       *handler.AdminHandler
}

// Register sets up the full route table.
//
// Route groups, outermost first:
//   - /healthz and /metrics are unauthenticated operational endpoints.
//   - /api public browse routes are rate limited and response cached.
//   - /api/Usuarios carries registration and login; the rest of /api
//     requires a Bearer token with a live session.
//   - Owner and admin sub-groups additionally require those roles.
func Register(e *echo.Echo, h Handlers, cfg config.Config, sessions *session.Store, rdb *redis.Client) {
	e.Use(middleware.Metrics())

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	authed := middleware.JWTAuth(cfg.JWTSecret, sessions)

	// Public browse. Cached and rate limited; no token required.
	pub := e.Group("/api", rateLimit)
	pub.GET("/TiposComercio", h.Public.ListTypes, cache)
	pub.GET("/Comercios", h.Public.ListVenues, cache)
	pub.GET("/Comercios/discover", h.Public.Discover)
	pub.GET("/Comercios/:id", h.Public.GetVenue, cache)
	pub.GET("/Comercios/:id/Resenias", h.Public.ListVenueReviews, cache)

	// Accounts. Register/login/google/refresh are anonymous; the rest
	// need a token.
	usuarios := e.Group("/api/Usuarios", rateLimit)
	usuarios.POST("/register", h.Auth.Register)
	usuarios.POST("/login", h.Auth.Login)
	usuarios.POST("/google", h.Auth.Google)
	usuarios.POST("/refresh", h.Auth.Refresh)
	usuarios.POST("/logout", h.Auth.Logout, authed)
	usuarios.GET("/me", h.Auth.Me, authed)
	usuarios.POST("/validate-session", h.Auth.ValidateSession, authed)

	// Customer endpoints: reservations and reviews. Owners and admins
	// hold these capabilities too.
	anyRole := middleware.RequireRole("CUSTOMER", "OWNER", "ADMIN")
	reservas := e.Group("/api/Reservas", authed, anyRole)
	reservas.POST("", h.CustomerRes.Create)
	reservas.GET("/mine", h.CustomerRes.Mine)
	reservas.PUT("/:id/cancel", h.CustomerRes.Cancel)

	resenias := e.Group("/api/Resenias", authed, anyRole)
	resenias.POST("", h.Reviews.Create)
	resenias.GET("/mine", h.Reviews.Mine)
	resenias.GET("/can-review", h.Reviews.CanReview)

	// Owner endpoints.
	owner := middleware.RequireRole("OWNER", "ADMIN")
	comercios := e.Group("/api/Comercios", authed, owner)
	comercios.POST("", h.OwnerVenues.Create)
	comercios.GET("/mine", h.OwnerVenues.Mine)
	comercios.PUT("/:id", h.OwnerVenues.Update)
	comercios.GET("/:id/counts", h.OwnerVenues.Counts)
	comercios.GET("/:id/Reservas", h.OwnerRes.ListByVenue)

	ownerRes := e.Group("/api/Reservas", authed, owner)
	ownerRes.PUT("/:id/approve", h.OwnerRes.Approve)
	ownerRes.PUT("/:id/reject", h.OwnerRes.Reject)

	// Admin console. Shares the /api resource paths; the static segments
	// (Usuarios, pending) win over the public parameterized routes.
	admin := middleware.RequireRole("ADMIN")
	adm := e.Group("/api", authed, admin)
	adm.GET("/Usuarios", h.Admin.ListUsers)
	adm.PUT("/Usuarios/:id", h.Admin.UpdateUser)
	adm.GET("/Comercios/pending", h.Admin.PendingVenues)
	adm.PUT("/Comercios/:id/approve", h.Admin.ApproveVenue)
	adm.PUT("/Comercios/:id/reject", h.Admin.RejectVenue)
	adm.GET("/Resenias/pending", h.Admin.PendingReviews)
	adm.PUT("/Resenias/:id/approve", h.Admin.ApproveReview)
	adm.PUT("/Resenias/:id/reject", h.Admin.RejectReview)
	adm.DELETE("/Reservas/:id", h.Admin.DeleteReservation)
}
