package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/flowplan/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix is prepended to every cache key.
const DefaultPrefix = "flowplan:plan:"

// Cache implements ports.PlanCache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets a default expiration, used when Set is called with a zero ttl.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix for cached plans.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	cache := &Cache{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Client exposes the underlying client so a Locker can share the connection.
func (c *Cache) Client() *backend.Client {
	return c.client
}

func (c *Cache) key(key string) string {
	return c.prefix + key
}

// Get retrieves a raw plan from Redis.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return "", domain.ErrCacheMiss
		}
		return "", fmt.Errorf("failed to load from redis: %w", err)
	}
	return val, nil
}

// Set stores a raw plan in Redis.
func (c *Cache) Set(ctx context.Context, key, raw string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Delete removes a cached plan.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}
