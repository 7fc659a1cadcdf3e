package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on one key across instances.
// The planning middleware uses it so that replicas sharing a cache wait for one
// planner call per problem instead of each solving it.
type DistributedLocker interface {
	// Lock blocks until the lock for key is acquired or ctx is done.
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
