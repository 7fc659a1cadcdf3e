package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/ports"
)

// PlannerContractTest is a reusable test suite that verifies if an adapter complies with ports.Planner.
// The planner must return want for problem, and must honor context cancellation.
func PlannerContractTest(t *testing.T, planner ports.Planner, problem domain.PDDL, want string) {
	t.Helper()

	t.Run("Plan_Success", func(t *testing.T) {
		raw, err := planner.Plan(context.Background(), problem)
		if err != nil {
			t.Fatalf("unexpected error planning: %v", err)
		}
		if raw != want {
			t.Errorf("raw plan mismatch. got %q, want %q", raw, want)
		}
	})

	t.Run("Plan_Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := planner.Plan(ctx, problem)
		if err == nil {
			t.Fatal("expected error for canceled context, got nil")
		}
		if !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrPlannerFailure) {
			t.Errorf("expected context.Canceled or ErrPlannerFailure, got %v", err)
		}
	})
}
