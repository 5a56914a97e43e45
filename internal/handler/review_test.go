package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postReview(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/Resenias", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", "CUSTOMER")

	h := &ReviewHandler{}
	require.NoError(t, h.Create(c))
	return rec
}

// The minimum comment length counts characters, not bytes. Accented
// Spanish text is multibyte in UTF-8, so a byte-length check would let
// short comments through.
func TestCreateReviewCommentLengthCountsRunes(t *testing.T) {
	cases := []struct {
		name    string
		comment string
	}{
		{"too short ascii", "corto"},
		{"multibyte five chars ten bytes", "áéíóú"},
		{"multibyte nine chars", "riquísimo"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postReview(t, `{"VenueId":1,"Rating":5,"Comment":"`+tc.comment+`"}`)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body apiError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, codeValidation, body.Code)
			assert.Contains(t, body.Error, "comentario")
		})
	}
}

func TestCreateReviewRejectsRatingOutOfRange(t *testing.T) {
	for _, rating := range []string{"0", "6"} {
		rec := postReview(t, `{"VenueId":1,"Rating":`+rating+`,"Comment":"excelente atención"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
