package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

const (
	msgEmailTaken    = "Email already registered"
	msgUsernameTaken = "Username already taken"
	msgBadLogin      = "Incorrect username or password"
	msgInactive      = "Inactive user"
)

// SessionStore records a server-side session at login and ends it at
// logout. Optional.
type SessionStore interface {
	Create(ctx context.Context, userID string) (string, error)
	Get(ctx context.Context, id string) (*session.Data, error)
	Delete(ctx context.Context, id string) error
}

// Options tune the auth flow; zero values fall back to defaults.
type Options struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Sessions   SessionStore
}

// Service implements registration, login and token refresh.
type Service struct {
	users    userrepo.Store
	codec    *TokenCodec
	hasher   PasswordHasher
	sessions SessionStore
	logger   *zap.SugaredLogger

	accessTTL  time.Duration
	refreshTTL time.Duration

	// compared against when the login identifier matches nobody
	dummyHash string
}

// NewService builds the auth flow. It hashes a throwaway password up front so
// unknown-user logins cost the same as real ones; failing that is an error.
func NewService(users userrepo.Store, codec *TokenCodec, hasher PasswordHasher, logger *zap.SugaredLogger, opts Options) (*Service, error) {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.AccessTTL == 0 {
		opts.AccessTTL = 30 * time.Minute
	}
	if opts.RefreshTTL == 0 {
		opts.RefreshTTL = 7 * 24 * time.Hour
	}
	dummy, err := hasher.Hash("timing-equalizer")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &Service{
		users:      users,
		codec:      codec,
		hasher:     hasher,
		sessions:   opts.Sessions,
		logger:     logger,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		dummyHash:  dummy,
	}, nil
}

// Register creates a user with role user. The password is hashed before the
// transaction opens; both uniqueness checks and the insert share it, and a
// concurrent duplicate that gets past the checks is caught by the table
// constraints.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*entity.PublicUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return nil, apperror.BadRequest("email, username and password are required")
	}
	if err := entity.ValidateUsername(username); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperror.BadRequest("password is too long")
		}
		return nil, err
	}

	var created *entity.User
	err = s.users.InTx(ctx, func(tx userrepo.Store) error {
		if _, err := tx.FindByEmail(ctx, email); err == nil {
			return apperror.AlreadyExists(msgEmailTaken)
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return err
		}
		if _, err := tx.FindByUsername(ctx, username); err == nil {
			return apperror.AlreadyExists(msgUsernameTaken)
		} else if !errors.Is(err, userrepo.ErrNotFound) {
			return err
		}

		u := &entity.User{
			Email:             email,
			Username:          username,
			PasswordHash:      hash,
			FullName:          req.FullName,
			Role:              entity.RoleUser,
			IsActive:          true,
			Skills:            database.StringList(req.Skills),
			ExperienceSummary: req.ExperienceSummary,
			PortfolioLinks:    database.StringList(req.PortfolioLinks),
			PreferredRate:     req.PreferredRate,
		}
		if err := tx.Insert(ctx, u); err != nil {
			return duplicateError(err)
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debugw("user registered", "user_id", created.ID, "username", created.Username)
	pub := created.Public()
	return &pub, nil
}

// duplicateError maps a constraint violation on insert to the same message
// the pre-insert lookups produce.
func duplicateError(err error) error {
	if !errors.Is(err, userrepo.ErrDuplicate) {
		return err
	}
	if strings.Contains(err.Error(), "username") {
		return apperror.AlreadyExists(msgUsernameTaken)
	}
	return apperror.AlreadyExists(msgEmailTaken)
}

// Login authenticates by email or username and issues a token pair.
// Unknown identifiers and wrong passwords are indistinguishable, including
// in timing: a missing user still costs one hash comparison.
func (s *Service) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identifier = strings.TrimSpace(identifier)
	u, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, userrepo.ErrNotFound) {
			return nil, err
		}
		s.hasher.Verify(s.dummyHash, password)
		return nil, apperror.Unauthorized(msgBadLogin)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		s.logger.Debugw("login failed", "user_id", u.ID)
		return nil, apperror.Unauthorized(msgBadLogin)
	}
	if !u.IsActive {
		return nil, apperror.Forbidden(msgInactive)
	}

	isAdmin := u.Role.IsAdmin()
	base := Claims{UserID: u.ID.String(), Role: u.Role.String(), IsAdmin: &isAdmin}
	base.Subject = u.Username

	access, err := s.codec.Issue(base, KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.Issue(base, KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	pair := &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}

	if s.sessions != nil {
		sid, err := s.sessions.Create(ctx, u.ID.String())
		if err != nil {
			s.logger.Warnw("session create failed", "user_id", u.ID, "err", err)
		} else {
			pair.SessionID = sid
		}
	}
	s.logger.Debugw("user logged in", "user_id", u.ID)
	return pair, nil
}

// Refresh exchanges a refresh token for a new access token. The role is
// re-read from the store; the refresh token itself is returned unchanged.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("Could not validate credentials")
	}
	if claims.Type != KindRefresh {
		return nil, apperror.Unauthorized("Invalid token type")
	}
	if claims.Subject == "" || claims.UserID == "" {
		return nil, apperror.Unauthorized("Invalid token payload")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid token payload")
	}

	u, err := s.users.FindByID(ctx, id)
	if err != nil && !errors.Is(err, userrepo.ErrNotFound) {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, apperror.Unauthorized("User not found or inactive")
	}

	isAdmin := u.Role.IsAdmin()
	next := Claims{UserID: u.ID.String(), Role: u.Role.String(), IsAdmin: &isAdmin}
	next.Subject = claims.Subject
	access, err := s.codec.Issue(next, KindAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken, TokenType: "bearer"}, nil
}

// Logout ends a session created at login. Sessions of other users look
// missing. Without a session store there is nothing to end.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, sessionID string) error {
	if s.sessions == nil {
		return nil
	}
	d, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperror.NotFound("Session not found")
		}
		return err
	}
	if d.UserID != userID.String() {
		return apperror.NotFound("Session not found")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Debugw("user logged out", "user_id", userID)
	return nil
}
