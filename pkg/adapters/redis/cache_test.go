package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowplan/pkg/adapters/redis"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunPlanCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client, redis.WithPrefix("test:plans:"))

	require.NoError(t, cache.Set(context.Background(), "abc", "(find_errors)", 0))
	assert.True(t, mr.Exists("test:plans:abc"))

	got, err := mr.Get("test:plans:abc")
	require.NoError(t, err)
	assert.Equal(t, "(find_errors)", got)
}

func TestRedisCache_TTL(t *testing.T) {
	mr, client := setup(t)
	cache := redis.NewFromClient(client, redis.WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "default", "(a)", 0))
	require.NoError(t, cache.Set(ctx, "explicit", "(b)", 10*time.Second))
	assert.Equal(t, time.Minute, mr.TTL("flowplan:plan:default"))
	assert.Equal(t, 10*time.Second, mr.TTL("flowplan:plan:explicit"))

	mr.FastForward(30 * time.Second)
	_, err := cache.Get(ctx, "explicit")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	got, err := cache.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "(a)", got)
}

func TestRedisCache_BackendDown(t *testing.T) {
	client := backend.NewClient(&backend.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	cache := redis.NewFromClient(client)

	_, err := cache.Get(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)
}
