package flowplan_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/pkg/adapters/memory"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/aretw0/flowplan/pkg/planning"
	"github.com/aretw0/flowplan/pkg/transform"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func errorsFlow() *domain.FlowDefinition {
	flow := domain.NewFlowDefinition("Error Triage")
	flow.AddMemoryItem(
		domain.MemoryItem{ID: "Database Link", State: domain.MemoryStateKnown},
		domain.MemoryItem{ID: "list_of_errors"},
	)
	flow.AddOperator(
		domain.OperatorDefinition{
			Name:     "Find Errors",
			Inputs:   []domain.SignatureItem{domain.Signature("Database Link")},
			Outcomes: []domain.Outcome{{Effects: []domain.SignatureItem{domain.Signature("list_of_errors")}}},
		},
		domain.OperatorDefinition{
			Name:   "Fix Errors",
			Inputs: []domain.SignatureItem{domain.Signature("list_of_errors")},
		},
	)
	flow.AddGoal(domain.Goals(domain.OperatorGoal("Fix Errors")))
	return flow
}

func transformOf(source, target string) transform.Transform {
	return transform.Transform{Source: source, Target: target}
}

func TestService_PlanEndToEnd(t *testing.T) {
	planner := memory.NewPlanner("(find_errors)\n(fix_errors)\n; cost = 2 (unit cost)\n")
	svc := flowplan.New(flowplan.WithPlanner(planner))

	res, err := svc.Plan(context.Background(), flowplan.PlanRequest{Flow: errorsFlow(), Options: options.Defaults()})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "Error Triage", res.Flow)

	want := []domain.Step{
		domain.ActionStep{Name: "Find Errors", Inputs: []string{"Database Link"}, Outputs: []string{"list_of_errors"}},
		domain.ActionStep{Name: "Fix Errors", Inputs: []string{"list_of_errors"}},
	}
	if diff := cmp.Diff(want, res.Plan.Steps); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}

	sent, ok := planner.Last()
	require.True(t, ok)
	assert.Equal(t, res.PDDL, sent)
	assert.Contains(t, sent.Domain, "(:action find_errors")
	assert.Contains(t, sent.Problem, "(:goal (and (has_done_fix_errors)))")
	assert.Contains(t, res.Transforms, transformOf("Database Link", "database_link"))
}

func TestService_InvalidFlowNeverReachesPlanner(t *testing.T) {
	planner := memory.NewPlanner("(a)")
	svc := flowplan.New(flowplan.WithPlanner(planner))

	flow := errorsFlow()
	flow.AddGoal(domain.Goals(domain.OperatorGoal("Deploy")))

	_, err := svc.Plan(context.Background(), flowplan.PlanRequest{Flow: flow})
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)
	assert.Zero(t, planner.Calls())
}

func TestService_PlannerErrorIsReturnedUnchanged(t *testing.T) {
	perr := &domain.PlannerError{Status: 422, Detail: "goal unreachable"}
	svc := flowplan.New(flowplan.WithPlanner(memory.NewFailingPlanner(perr)))

	_, err := svc.Plan(context.Background(), flowplan.PlanRequest{Flow: errorsFlow()})
	assert.Same(t, perr, err)
}

func TestService_NoPlanner(t *testing.T) {
	_, err := flowplan.New().Plan(context.Background(), flowplan.PlanRequest{Flow: errorsFlow()})
	assert.ErrorIs(t, err, flowplan.ErrNoPlanner)
}

func TestService_NilFlow(t *testing.T) {
	_, err := flowplan.New().Compile(nil, options.Defaults(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidFlow)
}

func TestService_CachedPlanner(t *testing.T) {
	inner := memory.NewPlanner("(find_errors)\n(fix_errors)")
	metrics := observability.NewMetrics()
	planner := planning.Chain(inner,
		planning.WithMetrics(metrics),
		planning.WithCache(memory.NewCache(), planning.CacheConfig{Metrics: metrics}),
	)
	svc := flowplan.New(flowplan.WithPlanner(planner), flowplan.WithMetrics(metrics))

	for range 2 {
		res, err := svc.Plan(context.Background(), flowplan.PlanRequest{Flow: errorsFlow()})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Plan.Len())
	}
	assert.Equal(t, 1, inner.Calls(), "identical compilations share one planner call")
}

func TestService_ReconstructCodeLike(t *testing.T) {
	svc := flowplan.New()
	res := svc.Reconstruct("[0] list_of_errors = Find Errors(Database Link)\n[1] Fix Errors(list_of_errors)", nil, errorsFlow(), false)
	require.Empty(t, res.Warnings)
	assert.Equal(t, 2, res.Plan.Len())
	assert.True(t, strings.HasPrefix(res.String(), `plan for "Error Triage": 2 steps`))
}

func TestFlow_Facade(t *testing.T) {
	flow := flowplan.NewFlow(errorsFlow(), flowplan.WithLookahead(1))
	require.True(t, flow.Validate().Valid())

	comp, err := flow.Compile()
	require.NoError(t, err)
	assert.Contains(t, comp.PDDL.Domain, "new_object_generic_0")

	res, err := flow.Plan(context.Background(), memory.NewPlanner("(find_errors)\n(fix_errors)"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Plan.Len())
}

func TestFlow_LookaheadRejected(t *testing.T) {
	_, err := flowplan.NewFlow(errorsFlow(), flowplan.WithLookahead(-1)).Compile()
	assert.ErrorIs(t, err, domain.ErrInvalidLookahead)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(flowplan.Version))
}
