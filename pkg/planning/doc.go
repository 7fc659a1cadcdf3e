// Package planning composes cross-cutting behavior around a ports.Planner.
//
// Each Middleware wraps a Planner and returns a Planner, so caching, metrics, tracing
// and rate limiting stack in any order:
//
//	planner := planning.Chain(remote,
//	    planning.WithTracing(tracer),
//	    planning.WithMetrics(metrics),
//	    planning.WithCache(cache, planning.CacheConfig{TTL: time.Hour}),
//	    planning.WithRateLimit(rate.NewLimiter(2, 1)),
//	)
package planning
