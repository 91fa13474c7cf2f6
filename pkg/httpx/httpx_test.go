package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperror.AlreadyExists("Email already registered"), http.StatusBadRequest},
		{apperror.BadRequest("bad"), http.StatusBadRequest},
		{apperror.Unauthorized("nope"), http.StatusUnauthorized},
		{apperror.Forbidden("Inactive user"), http.StatusForbidden},
		{fmt.Errorf("wrapped: %w", apperror.NotFound("User not found")), http.StatusNotFound},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	WriteError(zap.NewNop().Sugar(), rr, req, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Internal server error", body.Detail)
}

func TestWriteError_Unauthorized(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	WriteError(zap.NewNop().Sugar(), rr, req, apperror.Unauthorized("Could not validate credentials"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
	assert.Contains(t, rr.Body.String(), "Could not validate credentials")
}

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@x.com","name":"a"}`))
	var s sample
	require.NoError(t, DecodeJSON(req, &s))
	assert.Equal(t, "a@x.com", s.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	err := DecodeJSON(req, &sample{})
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "name")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.ErrorIs(t, DecodeJSON(req, &sample{}), apperror.ErrBadRequest)
}

func TestDecodeJSON_BodyTooLarge(t *testing.T) {
	big := `{"email":"a@x.com","name":"` + strings.Repeat("x", 2*MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	err := DecodeJSON(req, &sample{})
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Equal(t, "request body too large", apperror.Message(err))

	// just under the cap still decodes
	fits := `{"email":"a@x.com","name":"` + strings.Repeat("x", MaxBodyBytes-64) + `"}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(fits))
	require.NoError(t, DecodeJSON(req, &sample{}))
}

func TestParsePage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	p, err := ParsePage(req, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Page{Skip: 0, Limit: 20}, p)

	req = httptest.NewRequest(http.MethodGet, "/jobs?skip=40&limit=100", nil)
	p, err = ParsePage(req, 20, 100)
	require.NoError(t, err)
	assert.Equal(t, Page{Skip: 40, Limit: 100}, p)

	for _, q := range []string{"skip=-1", "limit=0", "limit=101", "limit=abc"} {
		req = httptest.NewRequest(http.MethodGet, "/jobs?"+q, nil)
		_, err = ParsePage(req, 20, 100)
		assert.ErrorIs(t, err, apperror.ErrBadRequest, q)
	}
}
