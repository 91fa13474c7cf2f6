package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/job/entity"
)

var ErrNotFound = errors.New("job posting not found")

type Store interface {
	Upsert(ctx context.Context, j *entity.JobPosting) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error)
	List(ctx context.Context, offset, limit int) ([]entity.JobPosting, error)
}

// Repo is the job_postings repository backed by PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo { return &Repo{db: db} }

// EnsureTable creates job_postings and its indexes if missing.
func (r *Repo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS job_postings (
  id UUID PRIMARY KEY,
  platform VARCHAR(20) NOT NULL CHECK (platform IN ('upwork','freelancer')),
  job_title TEXT NOT NULL,
  description TEXT NOT NULL,
  budget NUMERIC,
  required_skills JSONB NOT NULL DEFAULT '[]'::jsonb,
  url TEXT NOT NULL CONSTRAINT job_postings_url_key UNIQUE,
  extracted_at TIMESTAMPTZ,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_title ON job_postings(job_title);
CREATE INDEX IF NOT EXISTS idx_platform ON job_postings(platform);
CREATE INDEX IF NOT EXISTS idx_created_at ON job_postings(created_at);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectJob = `SELECT id, platform, job_title, description, budget, required_skills, url, extracted_at, created_at
  FROM job_postings`

// Upsert inserts j or, when its URL is already known, overwrites the stored
// posting in place. j.ID and j.CreatedAt are set from the stored row.
func (r *Repo) Upsert(ctx context.Context, j *entity.JobPosting) error {
	const q = `INSERT INTO job_postings (id, platform, job_title, description, budget, required_skills, url, extracted_at)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	  ON CONFLICT (url) DO UPDATE SET
		platform = EXCLUDED.platform,
		job_title = EXCLUDED.job_title,
		description = EXCLUDED.description,
		budget = EXCLUDED.budget,
		required_skills = EXCLUDED.required_skills,
		extracted_at = EXCLUDED.extracted_at
	  RETURNING id, created_at`
	row := struct {
		ID        uuid.UUID    `db:"id"`
		CreatedAt sql.NullTime `db:"created_at"`
	}{}
	err := r.db.GetContext(ctx, &row, q,
		uuid.New(), j.Platform, j.JobTitle, j.Description, j.Budget, j.RequiredSkills, j.URL, j.ExtractedAt)
	if err != nil {
		return err
	}
	j.ID, j.CreatedAt = row.ID, row.CreatedAt.Time
	return nil
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*entity.JobPosting, error) {
	var j entity.JobPosting
	if err := r.db.GetContext(ctx, &j, selectJob+" WHERE id=$1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// List returns postings newest first.
func (r *Repo) List(ctx context.Context, offset, limit int) ([]entity.JobPosting, error) {
	jobs := []entity.JobPosting{}
	if err := r.db.SelectContext(ctx, &jobs, selectJob+" ORDER BY created_at DESC, id OFFSET $1 LIMIT $2", offset, limit); err != nil {
		return nil, err
	}
	return jobs, nil
}
