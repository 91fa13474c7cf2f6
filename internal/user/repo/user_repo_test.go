package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
)

var userColumns = []string{"id", "email", "username", "password_hash", "full_name", "role", "is_active",
	"skills", "experience_summary", "portfolio_links", "preferred_rate", "created_at", "updated_at"}

func newRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func userRow(id uuid.UUID, email, username, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(userColumns).
		AddRow(id.String(), email, username, "$2a$12$hash", nil, role, true,
			[]byte(`["go"]`), "", []byte(`[]`), 0.0, now, now)
}

func TestFindByEmail(t *testing.T) {
	r, mock := newRepo(t)
	id := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("a@x.com").
		WillReturnRows(userRow(id, "a@x.com", "alice", "admin"))

	u, err := r.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, entity.RoleAdmin, u.Role)
	assert.Equal(t, []string{"go"}, []string(u.Skills))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery("FROM users WHERE id").WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := r.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByEmailOrUsername_SingleLookup(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email=$1 OR username=$1")).
		WithArgs("alice").
		WillReturnRows(userRow(uuid.New(), "a@x.com", "alice", "user"))

	u, err := r.FindByEmailOrUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailOrUsername_EmailMatchWins(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY (email=$1) DESC LIMIT 1")).
		WithArgs("victim@x.com").
		WillReturnRows(userRow(uuid.New(), "victim@x.com", "victim", "user"))

	u, err := r.FindByEmailOrUsername(context.Background(), "victim@x.com")
	require.NoError(t, err)
	assert.Equal(t, "victim", u.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_FillsDefaults(t *testing.T) {
	r, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &entity.User{Email: "a@x.com", Username: "alice", PasswordHash: "h", IsActive: true}
	require.NoError(t, r.Insert(context.Background(), u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, entity.RoleUser, u.Role)
	assert.Equal(t, now, u.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolation(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := r.Insert(context.Background(), &entity.User{Email: "a@x.com", Username: "alice"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")
}

func TestUpdate_PartialFields(t *testing.T) {
	r, mock := newRepo(t)
	id := uuid.New()
	admin := entity.RoleAdmin
	mock.ExpectQuery("UPDATE users SET").
		WithArgs(id, nil, nil, "admin", nil).
		WillReturnRows(userRow(id, "a@x.com", "alice", "admin"))

	u, err := r.Update(context.Background(), id, entity.UserUpdate{Role: &admin})
	require.NoError(t, err)
	assert.True(t, u.Role.IsAdmin())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Missing(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery("UPDATE users SET").WillReturnRows(sqlmock.NewRows(userColumns))

	off := false
	_, err := r.Update(context.Background(), uuid.New(), entity.UserUpdate{IsActive: &off})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	r, mock := newRepo(t)
	rows := userRow(uuid.New(), "a@x.com", "alice", "user")
	rows.AddRow(uuid.New().String(), "b@x.com", "bob", "$2a$12$hash", "Bob", "user", false,
		[]byte(`[]`), "", nil, 10.5, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("OFFSET $1 LIMIT $2")).WithArgs(0, 2).WillReturnRows(rows)

	users, err := r.List(context.Background(), 0, 2)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", *users[1].FullName)
	assert.False(t, users[1].IsActive)
}

func TestInTx_CommitsThroughTxStore(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM users WHERE email").WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	err := r.InTx(context.Background(), func(s Store) error {
		if _, err := s.FindByEmail(context.Background(), "a@x.com"); err != ErrNotFound {
			return err
		}
		return s.Insert(context.Background(), &entity.User{Email: "a@x.com", Username: "alice"})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
