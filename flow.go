package flowplan

import (
	"context"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/aretw0/flowplan/pkg/ports"
)

// Flow bundles a definition with the settings it is compiled under.
type Flow struct {
	*domain.FlowDefinition
	Options   options.Set
	Lookahead int
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithOptions sets the compilation options.
func WithOptions(set options.Set) FlowOption {
	return func(f *Flow) {
		f.Options = set
	}
}

// WithLookahead sets the number of placeholder objects created per type.
func WithLookahead(n int) FlowOption {
	return func(f *Flow) {
		f.Lookahead = n
	}
}

// NewFlow wraps def with default options and no lookahead.
func NewFlow(def *domain.FlowDefinition, opts ...FlowOption) *Flow {
	f := &Flow{FlowDefinition: def, Options: options.Defaults()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Validate runs the validation battery on the flow.
func (f *Flow) Validate() ValidationResult {
	return New().Validate(f.FlowDefinition)
}

// Compile compiles the flow under its options.
func (f *Flow) Compile() (*Compilation, error) {
	return New().Compile(f.FlowDefinition, f.Options, f.Lookahead)
}

// Plan compiles the flow and solves it with planner.
func (f *Flow) Plan(ctx context.Context, planner ports.Planner) (*PlanResult, error) {
	return New(WithPlanner(planner)).Plan(ctx, PlanRequest{
		Flow:      f.FlowDefinition,
		Options:   f.Options,
		Lookahead: f.Lookahead,
	})
}
