package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/mesalibre/mesalibre/internal/config"
	"github.com/mesalibre/mesalibre/internal/session"
)

// The clients hard-code these method/path pairs; renaming a route here is
// a breaking change for them.
func TestRegisterExposesDocumentedPaths(t *testing.T) {
	e := echo.New()
	Register(e, Handlers{}, config.Config{JWTSecret: "test"}, session.NewStore(nil, time.Hour), nil)

	registered := make(map[string]bool, len(e.Routes()))
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /healthz",
		"GET /api/Comercios",
		"GET /api/Comercios/:id",
		"POST /api/Usuarios/login",
		"POST /api/Usuarios/validate-session",
		"PUT /api/Reservas/:id/cancel",
		"GET /api/Resenias/can-review",
		"PUT /api/Reservas/:id/approve",

		// Admin console lives on the shared /api resource paths, not
		// under a separate prefix.
		"GET /api/Usuarios",
		"PUT /api/Usuarios/:id",
		"GET /api/Comercios/pending",
		"PUT /api/Comercios/:id/approve",
		"PUT /api/Comercios/:id/reject",
		"GET /api/Resenias/pending",
		"PUT /api/Resenias/:id/approve",
		"PUT /api/Resenias/:id/reject",
		"DELETE /api/Reservas/:id",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

// /api/Comercios/pending must resolve to the moderation queue, not fall
// through to the public venue-by-id route with id="pending".
func TestPendingIsNotCapturedByVenueParam(t *testing.T) {
	e := echo.New()
	Register(e, Handlers{}, config.Config{JWTSecret: "test"}, session.NewStore(nil, time.Hour), nil)

	c := e.NewContext(nil, nil)
	e.Router().Find(http.MethodGet, "/api/Comercios/pending", c)
	assert.Equal(t, "/api/Comercios/pending", c.Path())
	assert.Empty(t, c.Param("id"))
}
