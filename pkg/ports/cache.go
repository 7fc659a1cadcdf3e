package ports

import (
	"context"
	"time"
)

// PlanCache stores raw plans by key.
type PlanCache interface {
	// Get returns the cached raw plan.
	// Returns domain.ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a raw plan. A zero ttl means no expiration.
	Set(ctx context.Context, key, raw string, ttl time.Duration) error

	// Delete removes a cached plan. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
