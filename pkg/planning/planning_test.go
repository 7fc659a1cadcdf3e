package planning_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/flowplan/pkg/adapters/memory"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/planning"
	"github.com/aretw0/flowplan/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"golang.org/x/time/rate"
)

var problem = domain.PDDL{Domain: "(define (domain d))", Problem: "(define (problem p))"}

func TestCacheKey(t *testing.T) {
	a := planning.CacheKey(problem)
	assert.Len(t, a, 64)
	assert.Equal(t, a, planning.CacheKey(problem))

	shifted := domain.PDDL{Domain: problem.Domain + problem.Problem[:1], Problem: problem.Problem[1:]}
	assert.NotEqual(t, a, planning.CacheKey(shifted), "domain/problem boundary is part of the key")
}

func TestWithCache_HitSkipsPlanner(t *testing.T) {
	inner := memory.NewPlanner("(find_errors)")
	cache := memory.NewCache()
	metrics := observability.NewMetrics()
	planner := planning.Chain(inner, planning.WithCache(cache, planning.CacheConfig{Metrics: metrics}))
	ctx := context.Background()

	for range 3 {
		raw, err := planner.Plan(ctx, problem)
		require.NoError(t, err)
		assert.Equal(t, "(find_errors)", raw)
	}
	assert.Equal(t, 1, inner.Calls())

	stored, err := cache.Get(ctx, planning.CacheKey(problem))
	require.NoError(t, err)
	assert.Equal(t, "(find_errors)", stored)
}

func TestWithCache_FailuresAreNotStored(t *testing.T) {
	inner := memory.NewFailingPlanner(domain.ErrNoPlan)
	cache := memory.NewCache()
	planner := planning.WithCache(cache, planning.CacheConfig{})(inner)

	_, err := planner.Plan(context.Background(), problem)
	assert.ErrorIs(t, err, domain.ErrNoPlan)
	assert.Zero(t, cache.Len())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (string, error) { return "", errors.New("down") }
func (brokenCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Delete(context.Context, string) error { return nil }

func TestWithCache_BrokenCacheFallsThrough(t *testing.T) {
	inner := memory.NewPlanner("(a)")
	planner := planning.WithCache(brokenCache{}, planning.CacheConfig{})(inner)

	raw, err := planner.Plan(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, "(a)", raw)
	assert.Equal(t, 1, inner.Calls())
}

type slowPlanner struct {
	mu    sync.Mutex
	calls int
}

func (p *slowPlanner) Plan(ctx context.Context, _ domain.PDDL) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	time.Sleep(20 * time.Millisecond)
	return "(a)", nil
}

func TestWithCache_LockerDeduplicatesConcurrentMisses(t *testing.T) {
	inner := &slowPlanner{}
	planner := planning.WithCache(memory.NewCache(), planning.CacheConfig{Locker: memory.NewLocker()})(inner)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := planner.Plan(context.Background(), problem)
			assert.NoError(t, err)
			assert.Equal(t, "(a)", raw)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inner.calls)
}

func TestWithCache_ConcurrentMissesShareOneCall(t *testing.T) {
	inner := &slowPlanner{}
	planner := planning.WithCache(memory.NewCache(), planning.CacheConfig{})(inner)

	start := make(chan struct{})
	results := make([]string, 5)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			raw, err := planner.Plan(context.Background(), problem)
			assert.NoError(t, err)
			results[i] = raw
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, inner.calls)
	for _, raw := range results {
		assert.Equal(t, "(a)", raw)
	}
}

func TestWithTracing_RecordsSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("flowplan-test")

	ok := planning.WithTracing(tracer)(memory.NewPlanner("(a)"))
	_, err := ok.Plan(context.Background(), problem)
	require.NoError(t, err)

	failing := planning.WithTracing(tracer)(memory.NewFailingPlanner(&domain.PlannerError{Status: 500, Detail: "boom"}))
	_, err = failing.Plan(context.Background(), problem)
	require.Error(t, err)

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, planning.SpanPlan, spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	require.NotEmpty(t, spans[1].Events, "error must be recorded as a span event")
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}

func TestWithRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	inner := memory.NewPlanner("(a)")
	planner := planning.WithRateLimit(limiter)(inner)

	_, err := planner.Plan(context.Background(), problem)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = planner.Plan(ctx, problem)
	assert.Error(t, err, "second call must not fit in the deadline")
	assert.Equal(t, 1, inner.Calls())
}

func TestWithTimeout(t *testing.T) {
	var deadline bool
	inner := ports.PlannerFunc(func(ctx context.Context, _ domain.PDDL) (string, error) {
		_, deadline = ctx.Deadline()
		return "", nil
	})

	_, _ = planning.WithTimeout(time.Second)(inner).Plan(context.Background(), problem)
	assert.True(t, deadline)

	_, _ = planning.WithTimeout(0)(inner).Plan(context.Background(), problem)
	assert.False(t, deadline)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) planning.Middleware {
		return func(next ports.Planner) ports.Planner {
			return ports.PlannerFunc(func(ctx context.Context, p domain.PDDL) (string, error) {
				order = append(order, name)
				return next.Plan(ctx, p)
			})
		}
	}

	planner := planning.Chain(memory.NewPlanner("(a)"), tag("outer"), tag("inner"), planning.WithMetrics(observability.NewMetrics()))
	_, err := planner.Plan(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
