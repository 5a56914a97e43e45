package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesalibre/mesalibre/internal/session"
	"github.com/mesalibre/mesalibre/internal/utils"
)

const testSecret = "mw-test-secret"

func authedRequest(t *testing.T, store *session.Store, token string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"user_id": c.Get("user_id"),
			"role":    c.Get("role"),
		})
	}, JWTAuth(testSecret, store))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mintToken(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, utils.SessionClaims{UserID: userID, Role: role}, 15)
	require.NoError(t, err)
	return tok.Token
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec := authedRequest(t, session.NewStore(nil, 0), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
	rec := authedRequest(t, session.NewStore(nil, 0), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthStoreDisabledPassesThrough(t *testing.T) {
	rec := authedRequest(t, session.NewStore(nil, 0), mintToken(t, 7, "CUSTOMER"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"CUSTOMER"`)
	assert.Contains(t, rec.Body.String(), `"user_id":7`)
}

func TestJWTAuthRevokedSessionRejected(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, time.Hour)

	// No session record in the store: token alone is not enough.
	rec := authedRequest(t, store, mintToken(t, 7, "CUSTOMER"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthLiveSessionOverridesTokenRole(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewStore(rdb, time.Hour)
	require.NoError(t, store.Put(context.Background(), session.Record{
		UserID: 7, Role: "OWNER", Active: true, LastChecked: time.Now(),
	}))

	// The token still says CUSTOMER; the store has the current role.
	rec := authedRequest(t, store, mintToken(t, 7, "CUSTOMER"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"OWNER"`)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("role", c.Request().Header.Get("X-Test-Role"))
			return next(c)
		}
	}, RequireRole("ADMIN"))

	cases := map[string]int{
		"ADMIN":    http.StatusOK,
		"OWNER":    http.StatusForbidden,
		"CUSTOMER": http.StatusForbidden,
		"":         http.StatusForbidden,
	}
	for role, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Test-Role", role)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}
