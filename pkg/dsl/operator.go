package dsl

import "github.com/aretw0/flowplan/pkg/domain"

// OperatorBuilder provides a fluent API for configuring an operator.
type OperatorBuilder struct {
	op      domain.OperatorDefinition
	builder *Builder
}

// Cost sets an explicit cost. Operators default to cost 1.
func (o *OperatorBuilder) Cost(cost int) *OperatorBuilder {
	o.op.Cost = &cost
	return o
}

// In adds required inputs.
func (o *OperatorBuilder) In(params ...string) *OperatorBuilder {
	o.op.Inputs = append(o.op.Inputs, domain.Signature(params...))
	return o
}

// Requires adds a constraint that must hold before the operator runs.
func (o *OperatorBuilder) Requires(id string, value bool, params ...string) *OperatorBuilder {
	o.op.Inputs = append(o.op.Inputs, domain.SignatureItem{
		Constraints: []domain.Constraint{domain.NewConstraint(id, value, params...)},
	})
	return o
}

// Outcome starts a new outcome. Out, Sets and When then apply to it.
// Operators with more than one outcome are compiled one action per outcome.
func (o *OperatorBuilder) Outcome() *OperatorBuilder {
	o.op.Outcomes = append(o.op.Outcomes, domain.Outcome{})
	return o
}

func (o *OperatorBuilder) outcome() *domain.Outcome {
	if len(o.op.Outcomes) == 0 {
		o.Outcome()
	}
	return &o.op.Outcomes[len(o.op.Outcomes)-1]
}

// Out adds values the current outcome makes known.
func (o *OperatorBuilder) Out(params ...string) *OperatorBuilder {
	out := o.outcome()
	out.Effects = append(out.Effects, domain.Signature(params...))
	return o
}

// Sets makes the current outcome determine a constraint.
func (o *OperatorBuilder) Sets(id string, value bool, params ...string) *OperatorBuilder {
	out := o.outcome()
	out.Effects = append(out.Effects, domain.SignatureItem{
		Constraints: []domain.Constraint{domain.NewConstraint(id, value, params...)},
	})
	return o
}

// When adds conditions the current outcome needs on top of the operator inputs.
func (o *OperatorBuilder) When(params ...string) *OperatorBuilder {
	out := o.outcome()
	out.Conditions = append(out.Conditions, domain.Signature(params...))
	return o
}

// Probability sets the likelihood of the current outcome.
func (o *OperatorBuilder) Probability(p float64) *OperatorBuilder {
	o.outcome().Probability = &p
	return o
}

// End finishes the operator and returns the flow builder.
func (o *OperatorBuilder) End() *Builder {
	return o.builder
}

func (o *OperatorBuilder) build() domain.OperatorDefinition {
	return o.op
}
