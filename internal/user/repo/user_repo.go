package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

// Store is the credential store. Lookups return ErrNotFound when no row
// matches; writes that hit a unique constraint return ErrDuplicate.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmailOrUsername(ctx context.Context, identifier string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindAdmin(ctx context.Context) (*entity.User, error)
	Insert(ctx context.Context, u *entity.User) error
	Update(ctx context.Context, id uuid.UUID, upd entity.UserUpdate) (*entity.User, error)
	List(ctx context.Context, offset, limit int) ([]entity.User, error)
	// InTx runs fn against a Store bound to a single transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
	q  database.Querier
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db, q: db} }

// EnsureTable creates the users table if not exists (idempotent).
// Email is CITEXT so the unique constraint is case-insensitive; username is
// case-sensitive TEXT.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS users (
  id UUID PRIMARY KEY,
  email CITEXT NOT NULL CONSTRAINT users_email_key UNIQUE,
  username TEXT NOT NULL CONSTRAINT users_username_key UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT,
  role VARCHAR(20) NOT NULL DEFAULT 'user',
  is_active BOOLEAN NOT NULL DEFAULT true,
  skills JSONB NOT NULL DEFAULT '[]'::jsonb,
  experience_summary TEXT NOT NULL DEFAULT '',
  portfolio_links JSONB NOT NULL DEFAULT '[]'::jsonb,
  preferred_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectUser = `SELECT id, email, username, password_hash, full_name, role, is_active,
	skills, experience_summary, portfolio_links, preferred_rate, created_at, updated_at
  FROM users`

func (r *UserRepo) get(ctx context.Context, where string, args ...any) (*entity.User, error) {
	var u entity.User
	if err := r.q.GetContext(ctx, &u, selectUser+" WHERE "+where, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// FindByEmail matches case-insensitively (citext).
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, "email=$1", email)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.get(ctx, "username=$1", username)
}

// FindByEmailOrUsername resolves a login identifier in a single lookup. When
// the identifier is one account's email and another's username, the email
// owner wins.
func (r *UserRepo) FindByEmailOrUsername(ctx context.Context, identifier string) (*entity.User, error) {
	return r.get(ctx, "email=$1 OR username=$1 ORDER BY (email=$1) DESC LIMIT 1", identifier)
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.get(ctx, "id=$1", id)
}

// FindAdmin returns any admin account.
func (r *UserRepo) FindAdmin(ctx context.Context) (*entity.User, error) {
	return r.get(ctx, "role='admin' ORDER BY created_at LIMIT 1")
}

// Insert stores u. ID and timestamps are filled in when zero.
func (r *UserRepo) Insert(ctx context.Context, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == 0 {
		u.Role = entity.RoleUser
	}
	const q = `INSERT INTO users (id, email, username, password_hash, full_name, role, is_active,
		skills, experience_summary, portfolio_links, preferred_rate)
	  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	  RETURNING created_at, updated_at`
	row := struct {
		CreatedAt sql.NullTime `db:"created_at"`
		UpdatedAt sql.NullTime `db:"updated_at"`
	}{}
	err := r.q.GetContext(ctx, &row, q,
		u.ID, u.Email, u.Username, u.PasswordHash, u.FullName, u.Role, u.IsActive,
		u.Skills, u.ExperienceSummary, u.PortfolioLinks, u.PreferredRate)
	if err != nil {
		if c, ok := database.UniqueViolation(err); ok {
			return fmt.Errorf("%w: %s", ErrDuplicate, c)
		}
		return err
	}
	u.CreatedAt, u.UpdatedAt = row.CreatedAt.Time, row.UpdatedAt.Time
	return nil
}

// Update applies the non-nil fields of upd and bumps updated_at.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, upd entity.UserUpdate) (*entity.User, error) {
	const q = `UPDATE users SET
		full_name = COALESCE($2, full_name),
		email     = COALESCE($3, email),
		role      = COALESCE($4, role),
		is_active = COALESCE($5, is_active),
		updated_at = NOW()
	  WHERE id=$1
	  RETURNING id, email, username, password_hash, full_name, role, is_active,
		skills, experience_summary, portfolio_links, preferred_rate, created_at, updated_at`
	var role any
	if upd.Role != nil {
		role = *upd.Role
	}
	var u entity.User
	err := r.q.GetContext(ctx, &u, q, id, upd.FullName, upd.Email, role, upd.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if c, ok := database.UniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, c)
		}
		return nil, err
	}
	return &u, nil
}

// List returns users in creation order.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]entity.User, error) {
	users := []entity.User{}
	if err := r.q.SelectContext(ctx, &users, selectUser+" ORDER BY created_at, id OFFSET $1 LIMIT $2", offset, limit); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepo) InTx(ctx context.Context, fn func(Store) error) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&UserRepo{db: r.db, q: tx})
	})
}
