// Package middleware contains reusable HTTP middleware: authentication,
// authorization, rate limiting, response caching and request metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/session"
)

// JWTAuth validates a Bearer access token and injects the user id and role
// into the request context under "user_id" (uint64) and "role" (string).
// When the session store is enabled the token must also have a live session
// record; a revoked or deactivated session rejects the request even if the
// token itself has not expired yet.
func JWTAuth(secret string, sessions *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Error": "falta el token de acceso", "Code": "unauthorized"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Error": "token invalido", "Code": "unauthorized"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Error": "token invalido", "Code": "unauthorized"})
			}

			sub, ok := claims["sub"].(float64)
			if !ok || sub < 1 {
				return c.JSON(http.StatusUnauthorized, echo.Map{"Error": "token invalido", "Code": "unauthorized"})
			}
			userID := uint64(sub)
			role, _ := claims["role"].(string)

			if sessions != nil && sessions.Enabled() {
				rec, found, err := sessions.Get(c.Request().Context(), userID)
				// A store error falls back to token-only auth; a missing or
				// inactive record means the session was revoked.
				if err == nil {
					if !found || !rec.Active {
						return c.JSON(http.StatusUnauthorized, echo.Map{"Error": "sesion expirada", "Code": "unauthorized"})
					}
					// The store is the authority on role after admin edits.
					role = rec.Role
				}
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			return next(c)
		}
	}
}
