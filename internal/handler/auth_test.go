package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"

	"github.com/mesalibre/mesalibre/internal/config"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/session"
)

var userRows = []string{"id", "email", "password_hash", "display_name", "role_id", "is_active", "google_sub", "created_at", "updated_at"}

// A Google login against an email that already has a password account
// must sign into that account and persist the google_sub link, so the
// next login finds the row by sub directly.
func TestGoogleLoginLinksExistingEmailAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM users WHERE google_sub=").
		WithArgs("sub-123").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&duplicateKeyError{})
	mock.ExpectQuery("SELECT .* FROM users WHERE email=").
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userRows).
			AddRow(5, "ana@example.com", "$2a$10$hash", "Ana", 3, true, nil, now, now))
	mock.ExpectExec("UPDATE users SET google_sub=\\? WHERE id=\\? AND google_sub IS NULL").
		WithArgs("sub-123", 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := &AuthHandler{
		Cfg:      config.Config{JWTSecret: "secret", AccessTTLMin: 15, RefreshTTLDays: 7, GoogleClientID: "client-id"},
		Users:    repository.NewUserRepo(db),
		Tokens:   repository.NewTokenRepo(db),
		Sessions: session.NewStore(nil, time.Hour),
		verifyGoogle: func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			return &idtoken.Payload{
				Subject: "sub-123",
				Claims:  map[string]any{"email": "ana@example.com", "name": "Ana"},
			}, nil
		},
	}

	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/Usuarios/google", strings.NewReader(`{"IdToken":"tok"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	require.NoError(t, h.Google(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Email":"ana@example.com"`)
	assert.NoError(t, mock.ExpectationsWereMet(), "google_sub link must be persisted")
}

// duplicateKeyError mimics the MySQL duplicate entry error text.
type duplicateKeyError struct{}

func (*duplicateKeyError) Error() string { return "Error 1062 (23000): Duplicate entry" }
