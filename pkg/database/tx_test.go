package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(context.Background(), "UPDATE users SET is_active=false")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackAndRethrowsPanic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = WithTx(context.Background(), db, func(tx *sqlx.Tx) error { panic("kaboom") })
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolation(t *testing.T) {
	name, ok := UniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_email_key"}))
	assert.True(t, ok)
	assert.Equal(t, "users_email_key", name)

	name, ok = UniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
	assert.True(t, ok)
	assert.Equal(t, "users_username_key", name)

	_, ok = UniqueViolation(&pq.Error{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(errors.New("plain"))
	assert.False(t, ok)
}

func TestForeignKeyViolation(t *testing.T) {
	name, ok := ForeignKeyViolation(&pq.Error{Code: "23503", Constraint: "applications_job_posting_id_fkey"})
	assert.True(t, ok)
	assert.Equal(t, "applications_job_posting_id_fkey", name)
}

func TestStringList_ScanAndValue(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan([]byte(`["go","sql"]`)))
	assert.Equal(t, StringList{"go", "sql"}, l)

	require.NoError(t, l.Scan(`["x"]`))
	assert.Equal(t, StringList{"x"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Nil(t, l)

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	assert.Error(t, l.Scan(42))
}

func TestJSONList_NilIsNull(t *testing.T) {
	v, err := JSONList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var l JSONList
	require.NoError(t, l.Scan([]byte(`[{"title":"design","amount":100}]`)))
	require.Len(t, l, 1)
	assert.Equal(t, "design", l[0].(map[string]any)["title"])
}
