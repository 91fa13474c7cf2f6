package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo/repotest"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

func newService(t *testing.T) (*UserService, *repotest.MemStore) {
	t.Helper()
	store := repotest.NewMemStore()
	return NewUserService(store, auth.BcryptHasher{Cost: bcrypt.MinCost}, nil), store
}

func seed(t *testing.T, store *repotest.MemStore, email, username string, role entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Username: username, PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, store.Insert(context.Background(), u))
	return u
}

func strp(s string) *string { return &s }

func TestGet_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateMe(t *testing.T) {
	svc, store := newService(t)
	alice := seed(t, store, "a@x.com", "alice", entity.RoleUser)
	seed(t, store, "b@x.com", "bob", entity.RoleUser)

	u, err := svc.UpdateMe(context.Background(), alice.ID, UpdateMeRequest{FullName: strp("Alice A")})
	require.NoError(t, err)
	assert.Equal(t, "Alice A", *u.FullName)
	assert.Equal(t, "a@x.com", u.Email)

	_, err = svc.UpdateMe(context.Background(), alice.ID, UpdateMeRequest{Email: strp("B@x.com")})
	assert.ErrorIs(t, err, apperror.ErrAlreadyExists)

	// same address in another case is not a collision
	u, err = svc.UpdateMe(context.Background(), alice.ID, UpdateMeRequest{Email: strp("A@X.com")})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)

	u, err = svc.UpdateMe(context.Background(), alice.ID, UpdateMeRequest{Email: strp("new@x.com")})
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", u.Email)
}

func TestUpdateRoleAndActive(t *testing.T) {
	svc, store := newService(t)
	alice := seed(t, store, "a@x.com", "alice", entity.RoleUser)

	u, err := svc.UpdateRole(context.Background(), alice.ID, entity.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	u, err = svc.SetActive(context.Background(), alice.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	_, err = svc.UpdateRole(context.Background(), uuid.New(), entity.RoleAdmin)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	_, err = svc.UpdateRole(context.Background(), alice.ID, entity.Role(9))
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestList(t *testing.T) {
	svc, store := newService(t)
	seed(t, store, "a@x.com", "alice", entity.RoleUser)
	seed(t, store, "b@x.com", "bob", entity.RoleUser)
	seed(t, store, "c@x.com", "carol", entity.RoleUser)

	page, err := svc.List(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bob", page[0].Username)

	all, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestEnsureAdmin_Creates(t *testing.T) {
	svc, store := newService(t)
	acc := AdminAccount{Email: "Admin@X.com", Username: "admin", Password: "admin123", FullName: "Root"}

	changed, err := svc.EnsureAdmin(context.Background(), acc)
	require.NoError(t, err)
	assert.True(t, changed)

	admin, err := store.FindAdmin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", admin.Email)
	assert.True(t, auth.BcryptHasher{}.Verify(admin.PasswordHash, "admin123"))

	changed, err = svc.EnsureAdmin(context.Background(), acc)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	svc, store := newService(t)
	u := seed(t, store, "other@x.com", "admin", entity.RoleUser)

	changed, err := svc.EnsureAdmin(context.Background(), AdminAccount{Email: "admin@x.com", Username: "admin", Password: "pw"})
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := store.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, got.Role)
	assert.Equal(t, "x", got.PasswordHash)
}

func TestEnsureAdmin_RequiresCredentials(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.EnsureAdmin(context.Background(), AdminAccount{Email: "a@x.com"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestEnsureAdmin_RejectsUsernameWithAt(t *testing.T) {
	svc, store := newService(t)
	_, err := svc.EnsureAdmin(context.Background(), AdminAccount{Email: "admin@x.com", Username: "admin@x.com", Password: "pw"})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = store.FindAdmin(context.Background())
	assert.Error(t, err)
}
