/*
Package flowplan composes flows of capabilities by reduction to classical planning.

A flow declares operators (capabilities with typed inputs and outcomes), memory items
with a knowledge state, value mappings, constraints, partial orders and goals. The
library validates the flow, compiles it to a PDDL domain and problem, hands that to an
external planner and decodes the planner's answer back into a plan over the flow's own
names.

	flow := dsl.New("errors").
	    Known("Database Link").
	    Operator("Find Errors").In("Database Link").Out("list_of_errors").End().
	    Operator("Fix Errors").In("list_of_errors").End().
	    GoalOperator("Fix Errors").
	    MustBuild()

	svc := flowplan.New(flowplan.WithPlanner(planner))
	result, err := svc.Plan(ctx, flowplan.PlanRequest{Flow: flow, Options: options.Defaults()})

Planners are ports: a remote HTTP planner service, a local executable, or a scripted
planner in tests. Middleware from pkg/planning adds caching, metrics and tracing
around any of them.
*/
package flowplan
