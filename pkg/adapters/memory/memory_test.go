package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/flowplan/pkg/adapters/memory"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/ports"
	"github.com/aretw0/flowplan/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunPlanCacheContract(t, memory.NewCache())
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := memory.NewCache()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", "(a)", time.Nanosecond))
	time.Sleep(time.Millisecond)

	_, err := cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryPlanner_Contract(t *testing.T) {
	problem := domain.PDDL{Domain: "(define (domain d))", Problem: "(define (problem p))"}
	tests.PlannerContractTest(t, memory.NewPlanner("(find_errors)\n"), problem, "(find_errors)\n")
}

func TestMemoryPlanner_RecordsCalls(t *testing.T) {
	planner := memory.NewPlanner("(a)")
	_, ok := planner.Last()
	assert.False(t, ok)

	_, err := planner.Plan(context.Background(), domain.PDDL{Problem: "p1"})
	require.NoError(t, err)
	_, err = planner.Plan(context.Background(), domain.PDDL{Problem: "p2"})
	require.NoError(t, err)

	assert.Equal(t, 2, planner.Calls())
	last, ok := planner.Last()
	require.True(t, ok)
	assert.Equal(t, "p2", last.Problem)
}

func TestMemoryPlanner_Failing(t *testing.T) {
	planner := memory.NewFailingPlanner(domain.ErrNoPlan)
	_, err := planner.Plan(context.Background(), domain.PDDL{})
	assert.True(t, errors.Is(err, domain.ErrPlannerFailure))
}

func TestMemoryLocker_Exclusive(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	var inside, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "k", time.Second)
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > peak.Load() {
				peak.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			_ = unlock(ctx)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak.Load())
}

func TestMemoryLocker_Timeout(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "k", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = locker.Lock(ctx, "other", time.Second)
	assert.NoError(t, err, "keys are independent")

	require.NoError(t, unlock(ctx))
	require.NoError(t, unlock(ctx), "unlock is idempotent")
	again, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)
	_ = again(ctx)
}

func TestMemoryLoader_CopiesCatalog(t *testing.T) {
	loader := memory.NewLoader(domain.OperatorDefinition{Name: "Find Errors"})
	c, err := loader.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, c.Operators, 1)

	c.Operators[0].Name = "mutated"
	again, err := loader.LoadCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Find Errors", again.Operators[0].Name)
}
