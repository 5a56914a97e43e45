// Package handler implements the HTTP endpoints. Handlers bind and
// validate the request, call repositories and services, and translate
// domain errors into the structured {Error, Code} payload clients match
// on. Codes, not message text, are the contract.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesalibre/mesalibre/internal/repository"
)

// apiError is the uniform error body. Error is a human-readable Spanish
// message; Code is the stable machine-readable discriminator.
type apiError struct {
	Error string `json:"Error"`
	Code  string `json:"Code"`
}

const (
	codeValidation   = "validation"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeConflict     = "conflict"
	codeServerError  = "server_error"
)

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, apiError{Error: msg, Code: codeValidation})
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, apiError{Error: msg, Code: codeUnauthorized})
}

func serverError(c echo.Context, msg string) error {
	return c.JSON(http.StatusInternalServerError, apiError{Error: msg, Code: codeServerError})
}

// repoError maps the repository sentinels onto HTTP responses. Unmatched
// errors fall through to a 500 with the given message.
func repoError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, apiError{Error: "no encontrado", Code: codeNotFound})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, apiError{Error: "acceso denegado", Code: codeForbidden})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, apiError{Error: "ya fue procesado", Code: codeConflict})
	default:
		return serverError(c, msg)
	}
}

// currentUser pulls the authenticated user id set by the JWT middleware.
func currentUser(c echo.Context) (uint64, bool) {
	id, ok := c.Get("user_id").(uint64)
	return id, ok && id > 0
}

// pathID parses a numeric :id path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
