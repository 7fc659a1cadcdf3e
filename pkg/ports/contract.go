package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPlanCacheContract runs a suite of tests to verify that a PlanCache implementation
// adheres to the defined interface contract.
func RunPlanCacheContract(t *testing.T, cache PlanCache) {
	ctx := context.Background()
	key := "contract-test-plan-" + time.Now().Format("20060102150405")

	t.Run("Set and Get", func(t *testing.T) {
		raw := "(find_errors)\n(fix_errors)\n"
		require.NoError(t, cache.Set(ctx, key, raw, 0), "Set should not return error")

		got, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, raw, got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, "(first)", 0))
		require.NoError(t, cache.Set(ctx, key, "(second)", 0))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "(second)", got)
	})

	t.Run("Empty Plan", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key+"-empty", "", 0))
		defer func() { _ = cache.Delete(ctx, key+"-empty") }()

		got, err := cache.Get(ctx, key+"-empty")
		require.NoError(t, err, "an empty plan is a hit, not a miss")
		assert.Empty(t, got)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := cache.Get(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, key, "(find_errors)", 0))
		require.NoError(t, cache.Delete(ctx, key), "Delete should not return error")

		_, err := cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")

		assert.NoError(t, cache.Delete(ctx, key), "deleting an absent key is not an error")
	})
}
