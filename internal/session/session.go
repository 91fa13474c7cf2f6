// Package session keeps server-side login sessions in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/utilities"
)

// DefaultTTL is one day.
const DefaultTTL = 24 * time.Hour

var ErrNotFound = errors.New("session not found")

// Data is the stored session payload.
type Data struct {
	UserID string `json:"user_id"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func Key(id string) string { return "session:" + id }

// Create stores a new session for userID and returns its id.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	id := utilities.NewKSUID()
	data, err := json.Marshal(Data{UserID: userID})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, Key(id), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Data, error) {
	raw, err := s.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &d, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, Key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
