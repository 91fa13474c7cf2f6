package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

// maxListAll bounds the admin listing.
const maxListAll = 1000

// UpdateMeRequest is the self-service profile patch.
type UpdateMeRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
}

// AdminAccount describes the bootstrap administrator.
type AdminAccount struct {
	Email    string
	Username string
	Password string
	FullName string
}

// UserService manages accounts after registration.
type UserService struct {
	repo   userrepo.Store
	hasher auth.PasswordHasher
	logger *zap.SugaredLogger
}

func NewUserService(r userrepo.Store, hasher auth.PasswordHasher, logger *zap.SugaredLogger) *UserService {
	if hasher == nil {
		hasher = auth.BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, hasher: hasher, logger: logger}
}

func notFound(err error) error {
	if errors.Is(err, userrepo.ErrNotFound) {
		return apperror.NotFound("User not found")
	}
	return err
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entity.PublicUser, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	pub := u.Public()
	return &pub, nil
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]entity.PublicUser, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	out := make([]entity.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// ListAll is the admin view, capped at maxListAll rows.
func (s *UserService) ListAll(ctx context.Context) ([]entity.PublicUser, error) {
	return s.List(ctx, 0, maxListAll)
}

// UpdateMe changes the caller's own name and email.
func (s *UserService) UpdateMe(ctx context.Context, id uuid.UUID, req UpdateMeRequest) (*entity.PublicUser, error) {
	var out *entity.User
	err := s.repo.InTx(ctx, func(tx userrepo.Store) error {
		cur, err := tx.FindByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		upd := entity.UserUpdate{FullName: req.FullName}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if email == "" {
				return apperror.BadRequest("email must not be empty")
			}
			if !strings.EqualFold(email, cur.Email) {
				if _, err := tx.FindByEmail(ctx, email); err == nil {
					return apperror.AlreadyExists("Email already registered")
				} else if !errors.Is(err, userrepo.ErrNotFound) {
					return err
				}
			}
			upd.Email = &email
		}
		if upd.Empty() {
			out = cur
			return nil
		}
		out, err = tx.Update(ctx, id, upd)
		if errors.Is(err, userrepo.ErrDuplicate) {
			return apperror.AlreadyExists("Email already registered")
		}
		return notFound(err)
	})
	if err != nil {
		return nil, err
	}
	pub := out.Public()
	return &pub, nil
}

// UpdateRole sets the role of any user.
func (s *UserService) UpdateRole(ctx context.Context, id uuid.UUID, role entity.Role) (*entity.PublicUser, error) {
	if !role.Valid() {
		return nil, apperror.BadRequest("invalid role")
	}
	u, err := s.repo.Update(ctx, id, entity.UserUpdate{Role: &role})
	if err != nil {
		return nil, notFound(err)
	}
	s.logger.Debugw("user role changed", "user_id", id, "role", role.String())
	pub := u.Public()
	return &pub, nil
}

// SetActive activates or deactivates any user.
func (s *UserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*entity.PublicUser, error) {
	u, err := s.repo.Update(ctx, id, entity.UserUpdate{IsActive: &active})
	if err != nil {
		return nil, notFound(err)
	}
	s.logger.Debugw("user activation changed", "user_id", id, "is_active", active)
	pub := u.Public()
	return &pub, nil
}

// EnsureAdmin creates the bootstrap administrator unless one exists. A
// regular account matching the email or username is promoted instead.
// It reports whether anything changed.
func (s *UserService) EnsureAdmin(ctx context.Context, acc AdminAccount) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(acc.Email))
	username := strings.TrimSpace(acc.Username)
	if email == "" || username == "" || acc.Password == "" {
		return false, apperror.BadRequest("admin email, username and password are required")
	}
	if err := entity.ValidateUsername(username); err != nil {
		return false, apperror.BadRequest(err.Error())
	}

	changed := false
	err := s.repo.InTx(ctx, func(tx userrepo.Store) error {
		if admin, err := tx.FindAdmin(ctx); err == nil {
			s.logger.Debugw("admin already present", "username", admin.Username)
			return nil
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return err
		}

		existing, err := tx.FindByEmail(ctx, email)
		if errors.Is(err, userrepo.ErrNotFound) {
			existing, err = tx.FindByUsername(ctx, username)
		}
		switch {
		case err == nil:
			admin := entity.RoleAdmin
			if _, err := tx.Update(ctx, existing.ID, entity.UserUpdate{Role: &admin}); err != nil {
				return err
			}
			s.logger.Warnw("promoted existing user to admin", "user_id", existing.ID, "username", existing.Username)
			changed = true
			return nil
		case !errors.Is(err, userrepo.ErrNotFound):
			return err
		}

		hash, err := s.hasher.Hash(acc.Password)
		if err != nil {
			return err
		}
		var fullName *string
		if acc.FullName != "" {
			fullName = &acc.FullName
		}
		u := &entity.User{
			Email:        email,
			Username:     username,
			PasswordHash: hash,
			FullName:     fullName,
			Role:         entity.RoleAdmin,
			IsActive:     true,
		}
		if err := tx.Insert(ctx, u); err != nil {
			return err
		}
		s.logger.Warnw("created admin user", "user_id", u.ID, "username", u.Username)
		changed = true
		return nil
	})
	return changed, err
}
