package planning

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/ports"
	"golang.org/x/time/rate"
)

// Middleware wraps a Planner to add behavior.
type Middleware func(ports.Planner) ports.Planner

// Chain applies middlewares so that the first one is the outermost wrapper.
func Chain(planner ports.Planner, mws ...Middleware) ports.Planner {
	for i := len(mws) - 1; i >= 0; i-- {
		planner = mws[i](planner)
	}
	return planner
}

// WithMetrics records the duration and result of every call reaching next.
func WithMetrics(m *observability.Metrics) Middleware {
	return func(next ports.Planner) ports.Planner {
		return ports.PlannerFunc(func(ctx context.Context, problem domain.PDDL) (string, error) {
			start := time.Now()
			raw, err := next.Plan(ctx, problem)
			m.ObservePlanner(time.Since(start), err)
			return raw, err
		})
	}
}

// WithRateLimit waits for limiter before each call.
func WithRateLimit(limiter *rate.Limiter) Middleware {
	return func(next ports.Planner) ports.Planner {
		return ports.PlannerFunc(func(ctx context.Context, problem domain.PDDL) (string, error) {
			if err := limiter.Wait(ctx); err != nil {
				return "", err
			}
			return next.Plan(ctx, problem)
		})
	}
}

// WithTimeout bounds each call. A zero duration leaves calls unbounded.
func WithTimeout(d time.Duration) Middleware {
	return func(next ports.Planner) ports.Planner {
		if d <= 0 {
			return next
		}
		return ports.PlannerFunc(func(ctx context.Context, problem domain.PDDL) (string, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next.Plan(ctx, problem)
		})
	}
}

// WithLogging logs each call at Debug and failures at Warn.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next ports.Planner) ports.Planner {
		return ports.PlannerFunc(func(ctx context.Context, problem domain.PDDL) (string, error) {
			start := time.Now()
			raw, err := next.Plan(ctx, problem)
			if err != nil {
				logger.Warn("planner call failed", "duration", time.Since(start), "err", err)
				return raw, err
			}
			logger.Debug("planner call", "duration", time.Since(start), "bytes", len(raw))
			return raw, nil
		})
	}
}
