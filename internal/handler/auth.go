package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"google.golang.org/api/idtoken"

	"github.com/mesalibre/mesalibre/internal/config"
	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/session"
	"github.com/mesalibre/mesalibre/internal/utils"
)

// AuthHandler bundles dependencies for the account endpoints.
type AuthHandler struct {
	Cfg        config.Config
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
	Sessions   *session.Store
	Reconciler *session.Reconciler

	// verifyGoogle is swappable in tests; the default calls Google's
	// token verification endpoint.
	verifyGoogle func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, s *session.Store, r *session.Reconciler) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, Reconciler: r, verifyGoogle: idtoken.Validate}
}

// ----- DTOs -----

type registerReq struct {
	Email       string `json:"Email"`
	Password    string `json:"Password"`
	DisplayName string `json:"DisplayName"`
	Role        string `json:"Role"` // CUSTOMER | OWNER
}
type loginReq struct {
	Email    string `json:"Email"`
	Password string `json:"Password"`
}
type googleReq struct {
	IDToken string `json:"IdToken"`
}
type refreshReq struct {
	RefreshToken string `json:"RefreshToken"`
}

type tokenPart struct {
	Token   string    `json:"Token"`
	Expires time.Time `json:"Expires"`
}
type userPart struct {
	ID          uint64 `json:"Id"`
	Email       string `json:"Email"`
	DisplayName string `json:"DisplayName"`
	Role        string `json:"Role"`
}
type authResp struct {
	User    userPart  `json:"User"`
	Access  tokenPart `json:"Access"`
	Refresh tokenPart `json:"Refresh"`
}

// Register creates an account and returns a token pair immediately. The
// requested role is capped at OWNER; admins are only created by other
// admins.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		return badRequest(c, "email, contraseña y nombre son obligatorios")
	}
	role := model.RoleCustomer
	if strings.ToUpper(strings.TrimSpace(req.Role)) == "OWNER" {
		role = model.RoleOwner
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.DisplayName, role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, apiError{Error: "el email ya está registrado", Code: codeConflict})
		}
		return serverError(c, "no se pudo crear el usuario")
	}
	return h.issuePair(c, ctx, http.StatusCreated, model.User{
		ID: uid, Email: req.Email, DisplayName: req.DisplayName, RoleID: role, IsActive: true,
	})
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "cuerpo invalido")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email y contraseña son obligatorios")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return unauthorized(c, "credenciales invalidas")
		}
		return serverError(c, "no se pudo consultar el usuario")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return unauthorized(c, "credenciales invalidas")
	}
	if !u.IsActive {
		return unauthorized(c, "la cuenta está desactivada")
	}
	return h.issuePair(c, ctx, http.StatusOK, u)
}

// Google signs a user in with a Google ID token, provisioning the account
// on first use. Google accounts are always customers and have no password.
func (h *AuthHandler) Google(c echo.Context) error {
	var req googleReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		return badRequest(c, "IdToken es obligatorio")
	}
	if h.Cfg.GoogleClientID == "" {
		return c.JSON(http.StatusNotImplemented, apiError{Error: "el ingreso con Google no está habilitado", Code: codeValidation})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	payload, err := h.verifyGoogle(ctx, strings.TrimSpace(req.IDToken), h.Cfg.GoogleClientID)
	if err != nil {
		return unauthorized(c, "token de Google invalido")
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		return unauthorized(c, "token de Google sin email")
	}
	if name == "" {
		name = email
	}

	u, err := h.Users.GetByGoogleSub(ctx, payload.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		var uid uint64
		uid, err = h.Users.CreateGoogle(ctx, email, name, payload.Subject)
		if errors.Is(err, repository.ErrEmailExists) {
			// The email already has a password account; sign into it and
			// remember the Google link through that row's google_sub.
			u, err = h.Users.GetByEmail(ctx, email)
			if err != nil {
				return serverError(c, "no se pudo consultar el usuario")
			}
			// Best effort: a failed link just repeats the lookup next login.
			if err := h.Users.LinkGoogleSub(ctx, u.ID, payload.Subject); err != nil {
				c.Logger().Warnf("google sub link failed for user %d: %v", u.ID, err)
			}
		} else if err != nil {
			return serverError(c, "no se pudo crear el usuario")
		} else {
			u = model.User{ID: uid, Email: email, DisplayName: name, RoleID: model.RoleCustomer, IsActive: true}
		}
	} else if err != nil {
		return serverError(c, "no se pudo consultar el usuario")
	}
	if !u.IsActive {
		return unauthorized(c, "la cuenta está desactivada")
	}
	return h.issuePair(c, ctx, http.StatusOK, u)
}

// Refresh rotates a refresh token: validate by hash, revoke, issue a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return badRequest(c, "RefreshToken es obligatorio")
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return unauthorized(c, "refresh token invalido")
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return serverError(c, "no se pudo cargar el usuario")
	}
	if !u.IsActive {
		return unauthorized(c, "la cuenta está desactivada")
	}
	return h.issuePair(c, ctx, http.StatusOK, u)
}

// Logout revokes every refresh token of the current user and drops the
// session record, so other devices are signed out on their next request.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return serverError(c, "no se pudo cerrar la sesión")
	}
	_ = h.Sessions.Revoke(ctx, uid)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's account.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return unauthorized(c, "la cuenta ya no existe")
		}
		return serverError(c, "no se pudo cargar el usuario")
	}
	return c.JSON(http.StatusOK, userPart{
		ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: model.RoleName(u.RoleID),
	})
}

// ValidateSession re-checks the session against the users table right now
// and reports the outcome. Clients poll this to pick up role changes and
// deactivations without waiting for token expiry.
func (h *AuthHandler) ValidateSession(c echo.Context) error {
	uid, ok := currentUser(c)
	if !ok {
		return unauthorized(c, "no autenticado")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	outcome, rec, err := h.Reconciler.CheckUser(ctx, uid)
	if err != nil {
		return serverError(c, "no se pudo validar la sesión")
	}
	if outcome == session.OutcomeInvalid {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"Outcome": outcome,
			"Error":   "la sesión ya no es valida",
			"Code":    codeUnauthorized,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"Outcome":     outcome,
		"Role":        rec.Role,
		"DisplayName": rec.DisplayName,
		"LastChecked": rec.LastChecked,
	})
}

// issuePair issues the access/refresh pair, persists the refresh hash and
// seeds the session record.
func (h *AuthHandler) issuePair(c echo.Context, ctx context.Context, code int, u model.User) error {
	role := model.RoleName(u.RoleID)
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, utils.SessionClaims{UserID: u.ID, Role: role}, h.Cfg.AccessTTLMin)
	if err != nil {
		return serverError(c, "no se pudo emitir el token de acceso")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return serverError(c, "no se pudo emitir el refresh token")
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return serverError(c, "no se pudo guardar el refresh token")
	}
	_ = h.Sessions.Put(ctx, session.Record{
		UserID:      u.ID,
		Role:        role,
		DisplayName: u.DisplayName,
		Active:      true,
		LastChecked: time.Now().UTC(),
	})

	return c.JSON(code, authResp{
		User:    userPart{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw goes back to the client
	})
}
