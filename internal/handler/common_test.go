package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesalibre/mesalibre/internal/model"
	"github.com/mesalibre/mesalibre/internal/repository"
	"github.com/mesalibre/mesalibre/internal/status"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	return c, rec
}

func TestRepoErrorMapsSentinelsToCodes(t *testing.T) {
	cases := []struct {
		err      error
		wantHTTP int
		wantCode string
	}{
		{repository.ErrNotFound, http.StatusNotFound, codeNotFound},
		{repository.ErrForbidden, http.StatusForbidden, codeForbidden},
		{repository.ErrConflict, http.StatusConflict, codeConflict},
		{errors.New("boom"), http.StatusInternalServerError, codeServerError},
	}
	for _, tc := range cases {
		c, rec := newTestContext(t)
		require.NoError(t, repoError(c, tc.err, "fallo"))
		assert.Equal(t, tc.wantHTTP, rec.Code)

		var body apiError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.wantCode, body.Code)
		assert.NotEmpty(t, body.Error)
	}
}

func TestCurrentUserRequiresMiddlewareValue(t *testing.T) {
	c, _ := newTestContext(t)
	_, ok := currentUser(c)
	assert.False(t, ok)

	c.Set("user_id", uint64(9))
	id, ok := currentUser(c)
	assert.True(t, ok)
	assert.EqualValues(t, 9, id)
}

func TestReservationDTODerivesFlags(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	reason := "sin lugar"

	pendingPast := model.Reservation{Date: now.Add(-time.Hour), Tolerance: 15 * time.Minute}
	dto := toReservationDTO(pendingPast, now)
	assert.Equal(t, status.Pending, dto.Status.State)
	assert.True(t, dto.IsPast)
	assert.True(t, dto.IsNoShow)
	assert.Equal(t, 15, dto.ToleranceMin)

	rejectedPast := model.Reservation{Date: now.Add(-time.Hour), RejectionReason: &reason}
	dto = toReservationDTO(rejectedPast, now)
	assert.Equal(t, status.Rejected, dto.Status.State)
	assert.Equal(t, "sin lugar", dto.Status.Reason)
	assert.False(t, dto.IsNoShow)

	// A date equal to now still counts as upcoming.
	atNow := model.Reservation{Date: now, Approved: true}
	dto = toReservationDTO(atNow, now)
	assert.Equal(t, status.Approved, dto.Status.State)
	assert.False(t, dto.IsPast)
}
