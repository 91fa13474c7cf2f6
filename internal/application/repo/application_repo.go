package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/application/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

var (
	ErrNotFound    = errors.New("application not found")
	ErrJobNotFound = errors.New("job posting not found")
)

// Store persists applications. Reads and deletes are always scoped to the
// owning user.
type Store interface {
	Insert(ctx context.Context, a *entity.Application) error
	FindForUser(ctx context.Context, userID, id uuid.UUID) (*entity.Application, error)
	ListForUser(ctx context.Context, userID uuid.UUID, f entity.ListFilter) ([]entity.Application, error)
	Update(ctx context.Context, id uuid.UUID, upd entity.ApplicationUpdate, submittedAt *time.Time) (*entity.Application, error)
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) (bool, error)
	InTx(ctx context.Context, fn func(Store) error) error
}

type Repo struct {
	db *sqlx.DB
	q  database.Querier
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db, q: db} }

// EnsureTable creates the applications table. It references users and
// job_postings, so those tables must exist first.
func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS applications (
  id UUID PRIMARY KEY,
  user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  job_posting_id UUID NOT NULL REFERENCES job_postings(id) ON DELETE CASCADE,
  status VARCHAR(20) NOT NULL DEFAULT 'drafted'
    CHECK (status IN ('drafted','approved','submitted','interviewed','won','lost')),
  proposal_content TEXT NOT NULL,
  bid_amount NUMERIC(10,2),
  milestones JSONB,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  submitted_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_applications_user_id ON applications(user_id);
CREATE INDEX IF NOT EXISTS idx_applications_job_posting_id ON applications(job_posting_id);
CREATE INDEX IF NOT EXISTS idx_applications_status ON applications(status);
CREATE INDEX IF NOT EXISTS idx_applications_user_status ON applications(user_id, status);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const columns = `id, user_id, job_posting_id, status, proposal_content, bid_amount, milestones,
	created_at, updated_at, submitted_at`

func (r *Repo) Insert(ctx context.Context, a *entity.Application) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	const q = `INSERT INTO applications (id, user_id, job_posting_id, status, proposal_content, bid_amount, milestones, submitted_at)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	  RETURNING created_at, updated_at`
	row := struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}{}
	err := r.q.GetContext(ctx, &row, q,
		a.ID, a.UserID, a.JobPostingID, a.Status, a.ProposalContent, a.BidAmount, a.Milestones, a.SubmittedAt)
	if err != nil {
		if _, ok := database.ForeignKeyViolation(err); ok {
			return ErrJobNotFound
		}
		return err
	}
	a.CreatedAt, a.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *Repo) FindForUser(ctx context.Context, userID, id uuid.UUID) (*entity.Application, error) {
	var a entity.Application
	err := r.q.GetContext(ctx, &a, "SELECT "+columns+" FROM applications WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repo) ListForUser(ctx context.Context, userID uuid.UUID, f entity.ListFilter) ([]entity.Application, error) {
	order := "DESC"
	if f.Ascending {
		order = "ASC"
	}
	var status any
	if f.Status != nil {
		status = string(*f.Status)
	}
	q := "SELECT " + columns + ` FROM applications
	  WHERE user_id=$1 AND ($2::text IS NULL OR status = $2::text)
	  ORDER BY created_at ` + order + `, id OFFSET $3 LIMIT $4`
	apps := []entity.Application{}
	if err := r.q.SelectContext(ctx, &apps, q, userID, status, f.Offset, f.Limit); err != nil {
		return nil, err
	}
	return apps, nil
}

// Update applies upd and sets submitted_at to the given value.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, upd entity.ApplicationUpdate, submittedAt *time.Time) (*entity.Application, error) {
	var status any
	if upd.Status != nil {
		status = string(*upd.Status)
	}
	q := `UPDATE applications SET
		status = COALESCE($2, status),
		proposal_content = COALESCE($3, proposal_content),
		bid_amount = COALESCE($4, bid_amount),
		milestones = COALESCE($5, milestones),
		submitted_at = $6,
		updated_at = NOW()
	  WHERE id=$1
	  RETURNING ` + columns
	var a entity.Application
	err := r.q.GetContext(ctx, &a, q, id, status, upd.ProposalContent, upd.BidAmount, database.JSONList(upd.Milestones), submittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *Repo) DeleteForUser(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	res, err := r.q.ExecContext(ctx, "DELETE FROM applications WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) InTx(ctx context.Context, fn func(Store) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&Repo{db: r.db, q: tx})
	})
}
