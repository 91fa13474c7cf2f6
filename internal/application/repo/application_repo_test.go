package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/entity"
)

var appColumns = []string{"id", "user_id", "job_posting_id", "status", "proposal_content", "bid_amount", "milestones",
	"created_at", "updated_at", "submitted_at"}

func newRepo(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepo(sqlx.NewDb(db, "pgx")), mock
}

func TestInsert_UnknownJob(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectQuery("INSERT INTO applications").
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "applications_job_posting_id_fkey"})

	err := r.Insert(context.Background(), &entity.Application{UserID: uuid.New(), JobPostingID: uuid.New(), Status: entity.StatusDrafted})
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestInsert(t *testing.T) {
	r, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO applications").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "drafted", "hello", nil, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	a := &entity.Application{UserID: uuid.New(), JobPostingID: uuid.New(), Status: entity.StatusDrafted, ProposalContent: "hello"}
	require.NoError(t, r.Insert(context.Background(), a))
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, now, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForUser_ScopedToOwner(t *testing.T) {
	r, mock := newRepo(t)
	user, id := uuid.New(), uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id=$1 AND user_id=$2")).
		WithArgs(id, user).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(id.String(), user.String(), uuid.NewString(), "submitted", "p", "99.50", `[{"title":"m1"}]`, time.Now(), time.Now(), time.Now()))

	a, err := r.FindForUser(context.Background(), user, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, a.Status)
	require.NotNil(t, a.BidAmount)
	assert.InDelta(t, 99.5, *a.BidAmount, 0.001)
	require.Len(t, a.Milestones, 1)
	assert.NotNil(t, a.SubmittedAt)

	mock.ExpectQuery("FROM applications WHERE id").WillReturnRows(sqlmock.NewRows(appColumns))
	_, err = r.FindForUser(context.Background(), uuid.New(), id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListForUser_FilterAndSort(t *testing.T) {
	r, mock := newRepo(t)
	user := uuid.New()
	won := entity.StatusWon

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC")).
		WithArgs(user, "won", 0, 10).
		WillReturnRows(sqlmock.NewRows(appColumns))
	_, err := r.ListForUser(context.Background(), user, entity.ListFilter{Status: &won, Ascending: true, Limit: 10})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs(user, nil, 20, 5).
		WillReturnRows(sqlmock.NewRows(appColumns))
	apps, err := r.ListForUser(context.Background(), user, entity.ListFilter{Offset: 20, Limit: 5})
	require.NoError(t, err)
	assert.NotNil(t, apps)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteForUser(t *testing.T) {
	r, mock := newRepo(t)
	mock.ExpectExec("DELETE FROM applications").WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := r.DeleteForUser(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExec("DELETE FROM applications").WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = r.DeleteForUser(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdate_InTx(t *testing.T) {
	r, mock := newRepo(t)
	id, user := uuid.New(), uuid.New()
	stamp := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE applications SET").
		WithArgs(id, "submitted", nil, nil, nil, stamp).
		WillReturnRows(sqlmock.NewRows(appColumns).
			AddRow(id.String(), user.String(), uuid.NewString(), "submitted", "p", nil, nil, time.Now(), time.Now(), stamp))
	mock.ExpectCommit()

	st := entity.StatusSubmitted
	err := r.InTx(context.Background(), func(s Store) error {
		a, err := s.Update(context.Background(), id, entity.ApplicationUpdate{Status: &st}, &stamp)
		if err == nil {
			assert.Equal(t, stamp, *a.SubmittedAt)
		}
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
