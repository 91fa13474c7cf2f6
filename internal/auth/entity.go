package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
)

// TokenKind discriminates access from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the signed token payload. Subject carries the username.
// IsAdmin is only present on access tokens.
type Claims struct {
	UserID  string    `json:"user_id"`
	Role    string    `json:"role"`
	Type    TokenKind `json:"type"`
	IsAdmin *bool     `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the login/refresh response.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	SessionID    string `json:"session_id,omitempty"`
}

// Identity is the authenticated caller derived from an access token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     entity.Role
	IsAdmin  bool
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email             string   `json:"email" validate:"required,email,max=255"`
	Username          string   `json:"username" validate:"required,max=50,excludes=@"`
	Password          string   `json:"password" validate:"required,max=72"`
	FullName          *string  `json:"full_name" validate:"omitempty,max=255"`
	Skills            []string `json:"skills"`
	ExperienceSummary string   `json:"experience_summary"`
	PortfolioLinks    []string `json:"portfolio_links" validate:"omitempty,dive,url"`
	PreferredRate     float64  `json:"preferred_rate" validate:"gte=0"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}
