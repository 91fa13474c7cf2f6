// Package repotest provides an in-memory user store for tests.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-jobboard-go/internal/user/repo"
)

// MemStore mirrors the table constraints: email unique case-insensitively,
// username unique case-sensitively. InTx runs fn directly without rollback.
type MemStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]entity.User
	// FailWith, when set, is returned by every call.
	FailWith error
}

func NewMemStore() *MemStore {
	return &MemStore{users: map[uuid.UUID]entity.User{}}
}

func (m *MemStore) find(match func(u entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, u := range m.sorted() {
		if match(u) {
			cp := u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *MemStore) sorted() []entity.User {
	out := make([]entity.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *MemStore) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MemStore) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return u.Username == username })
}

// FindByEmailOrUsername prefers an email match over a username match.
func (m *MemStore) FindByEmailOrUsername(ctx context.Context, identifier string) (*entity.User, error) {
	u, err := m.FindByEmail(ctx, identifier)
	if !errors.Is(err, repo.ErrNotFound) {
		return u, err
	}
	return m.FindByUsername(ctx, identifier)
}

func (m *MemStore) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return u.ID == id })
}

func (m *MemStore) FindAdmin(_ context.Context) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return u.Role.IsAdmin() })
}

func (m *MemStore) conflict(id uuid.UUID, email, username string) error {
	for _, u := range m.users {
		if u.ID == id {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return fmt.Errorf("%w: users_email_key", repo.ErrDuplicate)
		}
		if u.Username == username {
			return fmt.Errorf("%w: users_username_key", repo.ErrDuplicate)
		}
	}
	return nil
}

func (m *MemStore) Insert(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == 0 {
		u.Role = entity.RoleUser
	}
	if err := m.conflict(u.ID, u.Email, u.Username); err != nil {
		return err
	}
	// strictly increasing so creation order is stable
	now := time.Now().Add(time.Duration(len(m.users)) * time.Microsecond)
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) Update(_ context.Context, id uuid.UUID, upd entity.UserUpdate) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if upd.FullName != nil {
		u.FullName = upd.FullName
	}
	if upd.Email != nil {
		if err := m.conflict(id, *upd.Email, ""); err != nil {
			return nil, err
		}
		u.Email = *upd.Email
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now()
	m.users[id] = u
	return &u, nil
}

func (m *MemStore) List(_ context.Context, offset, limit int) ([]entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	all := m.sorted()
	if offset >= len(all) {
		return []entity.User{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *MemStore) InTx(_ context.Context, fn func(repo.Store) error) error {
	return fn(m)
}

// Put stores u as-is, bypassing constraint checks.
func (m *MemStore) Put(u entity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

var _ repo.Store = (*MemStore)(nil)
