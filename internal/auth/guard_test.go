package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

func accessToken(t *testing.T, codec *TokenCodec, id uuid.UUID, role entity.Role) string {
	t.Helper()
	isAdmin := role.IsAdmin()
	c := Claims{UserID: id.String(), Role: role.String(), IsAdmin: &isAdmin}
	c.Subject = "alice"
	tok, err := codec.Issue(c, KindAccess, 30*time.Minute)
	require.NoError(t, err)
	return tok
}

func TestAuthenticate_Valid(t *testing.T) {
	codec, _ := newCodec("s3cret")
	g := NewGuard(codec, nil)
	id := uuid.New()
	tok := accessToken(t, codec, id, entity.RoleAdmin)

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		ident, err := g.Authenticate(scheme + " " + tok)
		require.NoError(t, err, scheme)
		assert.Equal(t, id, ident.UserID)
		assert.Equal(t, "alice", ident.Username)
		assert.Equal(t, entity.RoleAdmin, ident.Role)
		assert.True(t, ident.IsAdmin)
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	codec, clk := newCodec("s3cret")
	g := NewGuard(codec, nil)
	id := uuid.New()
	valid := accessToken(t, codec, id, entity.RoleUser)

	c := Claims{UserID: id.String(), Role: "user"}
	c.Subject = "alice"
	refresh, err := codec.Issue(c, KindRefresh, time.Hour)
	require.NoError(t, err)

	c.UserID = "not-a-uuid"
	badID, err := codec.Issue(c, KindAccess, time.Hour)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"no scheme":     valid,
		"basic scheme":  "Basic " + valid,
		"bearer only":   "Bearer ",
		"garbage":       "Bearer garbage",
		"refresh token": "Bearer " + refresh,
		"bad user id":   "Bearer " + badID,
	}
	for name, header := range cases {
		_, err := g.Authenticate(header)
		assert.ErrorIs(t, err, apperror.ErrUnauthorized, name)
	}

	clk.t = clk.t.Add(31 * time.Minute)
	_, err = g.Authenticate("Bearer " + valid)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestRequireAdmin_TrustsToken(t *testing.T) {
	assert.NoError(t, RequireAdmin(&Identity{IsAdmin: true}))
	assert.ErrorIs(t, RequireAdmin(&Identity{IsAdmin: false}), apperror.ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(nil), apperror.ErrForbidden)
}

func TestMiddleware(t *testing.T) {
	codec, _ := newCodec("s3cret")
	g := NewGuard(codec, nil)
	id := uuid.New()

	var seen *Identity
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		g.RequireAuth(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("user passes auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, codec, id, entity.RoleUser))
		rec := httptest.NewRecorder()
		g.RequireAuth(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, id, seen.UserID)
	})

	t.Run("user denied admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, codec, id, entity.RoleUser))
		rec := httptest.NewRecorder()
		g.RequireAdmin(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin passes admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken(t, codec, id, entity.RoleAdmin))
		rec := httptest.NewRecorder()
		g.RequireAdmin(ok).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
