package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/httpx"
)

type ctxKey struct{}

// Guard authenticates requests from their bearer access token.
type Guard struct {
	codec  *TokenCodec
	logger *zap.SugaredLogger
}

func NewGuard(codec *TokenCodec, logger *zap.SugaredLogger) *Guard {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Guard{codec: codec, logger: logger}
}

func unauthorized() error { return apperror.Unauthorized("Could not validate credentials") }

// Authenticate resolves an Authorization header value into an Identity.
// Only access tokens are accepted.
func (g *Guard) Authenticate(header string) (*Identity, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, unauthorized()
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, unauthorized()
	}
	claims, err := g.codec.Verify(token)
	if err != nil || claims.Type != KindAccess {
		return nil, unauthorized()
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil || claims.Subject == "" {
		return nil, unauthorized()
	}
	role, err := entity.ParseRole(claims.Role)
	if err != nil {
		return nil, unauthorized()
	}
	isAdmin := claims.IsAdmin != nil && *claims.IsAdmin
	return &Identity{UserID: id, Username: claims.Subject, Role: role, IsAdmin: isAdmin}, nil
}

// RequireAdmin trusts the token: a user demoted after the token was issued
// keeps admin access until it expires. Refresh, by contrast, re-reads the
// role from the store.
func RequireAdmin(id *Identity) error {
	if id == nil || !id.IsAdmin {
		return apperror.Forbidden("Not enough permissions")
	}
	return nil
}

// RequireAuth is middleware that rejects unauthenticated requests and stores
// the Identity in the request context.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			httpx.WriteError(g.logger, w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin is RequireAuth plus the admin check.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return g.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := RequireAdmin(IdentityFrom(r.Context())); err != nil {
			httpx.WriteError(g.logger, w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFrom returns the caller set by RequireAuth, or nil.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
