package ports

import (
	"context"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Planner is the boundary to an external classical planner.
// Implementations return the raw, line-oriented plan text. Failures wrap
// domain.ErrPlannerFailure (domain.ErrNoPlan when the goal is unreachable) and are
// never retried here.
type Planner interface {
	Plan(ctx context.Context, problem domain.PDDL) (string, error)
}

// PlannerFunc adapts a function to the Planner interface.
type PlannerFunc func(ctx context.Context, problem domain.PDDL) (string, error)

// Plan calls f.
func (f PlannerFunc) Plan(ctx context.Context, problem domain.PDDL) (string, error) {
	return f(ctx, problem)
}
