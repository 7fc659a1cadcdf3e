package planning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// CacheConfig tunes WithCache.
type CacheConfig struct {
	// TTL of stored plans. Zero defers to the cache's own default.
	TTL time.Duration

	// Concurrent misses on the same problem within one process always share a
	// single planner call. Locker extends that across replicas sharing a Redis cache.
	Locker  ports.DistributedLocker
	LockTTL time.Duration

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

// CacheKey identifies a compiled problem: the hex sha256 of domain and problem text.
func CacheKey(problem domain.PDDL) string {
	h := sha256.New()
	h.Write([]byte(problem.Domain))
	h.Write([]byte{0})
	h.Write([]byte(problem.Problem))
	return hex.EncodeToString(h.Sum(nil))
}

// WithCache answers repeated problems from cache. Only successful plans are stored.
// Cache failures are logged and bypassed: the planner is still called.
func WithCache(cache ports.PlanCache, cfg CacheConfig) Middleware {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Minute
	}
	return func(next ports.Planner) ports.Planner {
		return &cached{next: next, cache: cache, cfg: cfg}
	}
}

type cached struct {
	next  ports.Planner
	cache ports.PlanCache
	cfg   CacheConfig
	group singleflight.Group
}

func (c *cached) Plan(ctx context.Context, problem domain.PDDL) (string, error) {
	key := CacheKey(problem)
	if raw, ok := c.lookup(ctx, key); ok {
		return raw, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fill(ctx, key, problem)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *cached) fill(ctx context.Context, key string, problem domain.PDDL) (string, error) {
	if c.cfg.Locker != nil {
		unlock, err := c.cfg.Locker.Lock(ctx, key, c.cfg.LockTTL)
		if err != nil {
			return "", err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				c.cfg.Logger.Warn("failed to release plan lock", "key", key, "err", err)
			}
		}()
	}
	// Another caller or replica may have filled the entry since the first lookup.
	if raw, err := c.cache.Get(ctx, key); err == nil {
		return raw, nil
	}

	raw, err := c.next.Plan(ctx, problem)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, raw, c.cfg.TTL); err != nil {
		c.cfg.Logger.Warn("failed to store plan", "key", key, "err", err)
	}
	return raw, nil
}

func (c *cached) lookup(ctx context.Context, key string) (string, bool) {
	raw, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		c.observe(observability.ResultHit)
		c.cfg.Logger.Debug("plan cache hit", "key", key)
		return raw, true
	case errors.Is(err, domain.ErrCacheMiss):
		c.observe(observability.ResultMiss)
	default:
		c.observe(observability.ResultError)
		c.cfg.Logger.Warn("plan cache lookup failed", "key", key, "err", err)
	}
	return "", false
}

func (c *cached) observe(outcome string) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ObserveCache(outcome)
	}
}
