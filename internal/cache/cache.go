// Package cache is a small JSON cache on top of Redis. Keys live under the
// "cache:" namespace.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	prefix     = "cache"
	DefaultTTL = 60 * time.Second
)

var (
	ErrMiss        = errors.New("cache miss")
	ErrUnavailable = errors.New("cache not configured")
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a cache over client. A nil client yields a cache whose every
// call fails with ErrUnavailable.
func New(client *redis.Client) *Cache {
	return &Cache{client: client, ttl: DefaultTTL}
}

// Key joins parts into a namespaced key, e.g. Key("job", id) = "cache:job:<id>".
func Key(parts ...any) string {
	s := make([]string, 0, len(parts)+1)
	s = append(s, prefix)
	for _, p := range parts {
		s = append(s, fmt.Sprint(p))
	}
	return strings.Join(s, ":")
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// Set stores v as JSON. A zero ttl means DefaultTTL.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set cache value: %w", err)
	}
	return nil
}

// Get decodes the value at key into dst.
func (c *Cache) Get(ctx context.Context, key string, dst any) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal cache value: %w", err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete cache value: %w", err)
	}
	return nil
}
