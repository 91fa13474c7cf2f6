package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/database"
)

// User represents an account row in the `users` table (the credential record).
type User struct {
	ID                uuid.UUID           `db:"id"`
	Email             string              `db:"email"`
	Username          string              `db:"username"`
	PasswordHash      string              `db:"password_hash"`
	FullName          *string             `db:"full_name"`
	Role              Role                `db:"role"`
	IsActive          bool                `db:"is_active"`
	Skills            database.StringList `db:"skills"`
	ExperienceSummary string              `db:"experience_summary"`
	PortfolioLinks    database.StringList `db:"portfolio_links"`
	PreferredRate     float64             `db:"preferred_rate"`
	CreatedAt         time.Time           `db:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at"`
}

// ErrUsernameHasAt rejects usernames that could be mistaken for an email at
// login, where one identifier field accepts either.
var ErrUsernameHasAt = errors.New("username must not contain @")

func ValidateUsername(username string) error {
	if strings.Contains(username, "@") {
		return ErrUsernameHasAt
	}
	return nil
}

// UserUpdate enumerates the fields that may change after creation. Nil
// pointers leave the column untouched.
type UserUpdate struct {
	FullName *string
	Email    *string
	Role     *Role
	IsActive *bool
}

// Empty reports whether the update changes nothing.
func (u UserUpdate) Empty() bool {
	return u.FullName == nil && u.Email == nil && u.Role == nil && u.IsActive == nil
}

// PublicUser is the client-facing projection; it never carries the hash.
type PublicUser struct {
	ID                uuid.UUID `json:"id"`
	Email             string    `json:"email"`
	Username          string    `json:"username"`
	FullName          *string   `json:"full_name"`
	Role              Role      `json:"role"`
	IsAdmin           bool      `json:"is_admin"`
	IsActive          bool      `json:"is_active"`
	Skills            []string  `json:"skills"`
	ExperienceSummary string    `json:"experience_summary"`
	PortfolioLinks    []string  `json:"portfolio_links"`
	PreferredRate     float64   `json:"preferred_rate"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (u *User) Public() PublicUser {
	skills := []string(u.Skills)
	if skills == nil {
		skills = []string{}
	}
	links := []string(u.PortfolioLinks)
	if links == nil {
		links = []string{}
	}
	return PublicUser{
		ID:                u.ID,
		Email:             u.Email,
		Username:          u.Username,
		FullName:          u.FullName,
		Role:              u.Role,
		IsAdmin:           u.Role.IsAdmin(),
		IsActive:          u.IsActive,
		Skills:            skills,
		ExperienceSummary: u.ExperienceSummary,
		PortfolioLinks:    links,
		PreferredRate:     u.PreferredRate,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}
