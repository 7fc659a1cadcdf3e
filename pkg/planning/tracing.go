package planning

import (
	"context"
	"fmt"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SpanPlan is the name of the span opened around each planner call.
const SpanPlan = "planner.plan"

// Attribute keys
const (
	AttrProblemKey = "flowplan.problem.key"
	AttrPlanBytes  = "flowplan.plan.bytes"
	AttrErrorType  = "error.type"
)

// WithTracing opens a span per call and records failures on it.
func WithTracing(tracer trace.Tracer) Middleware {
	return func(next ports.Planner) ports.Planner {
		return ports.PlannerFunc(func(ctx context.Context, problem domain.PDDL) (string, error) {
			ctx, span := tracer.Start(ctx, SpanPlan)
			defer span.End()
			span.SetAttributes(attribute.String(AttrProblemKey, CacheKey(problem)))

			raw, err := next.Plan(ctx, problem)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				span.SetAttributes(attribute.String(AttrErrorType, fmt.Sprintf("%T", err)))
				return raw, err
			}
			span.SetStatus(codes.Ok, "")
			span.SetAttributes(attribute.Int(AttrPlanBytes, len(raw)))
			return raw, nil
		})
	}
}
