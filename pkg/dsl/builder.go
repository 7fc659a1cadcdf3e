package dsl

import (
	"fmt"

	"github.com/aretw0/flowplan/internal/validator"
	"github.com/aretw0/flowplan/pkg/domain"
)

// Builder manages the flow construction.
type Builder struct {
	flow       *domain.FlowDefinition
	operators  []*OperatorBuilder
	startsWith string
	endsWith   string
}

// New creates a new flow builder.
func New(name string) *Builder {
	return &Builder{flow: domain.NewFlowDefinition(name)}
}

// Type declares a type. An empty parent places it under the root type.
func (b *Builder) Type(name, parent string, children ...string) *Builder {
	b.flow.AddType(domain.TypeNode{Name: name, Parent: parent, Children: children})
	return b
}

// Item declares a memory item of the given type in the unknown state.
func (b *Builder) Item(id, typeName string) *Builder {
	b.flow.AddMemoryItem(domain.MemoryItem{ID: id, Type: typeName})
	return b
}

// Known declares memory items whose value is already known.
func (b *Builder) Known(ids ...string) *Builder {
	return b.items(domain.MemoryStateKnown, ids)
}

// Uncertain declares memory items whose value is known but needs confirming.
func (b *Builder) Uncertain(ids ...string) *Builder {
	return b.items(domain.MemoryStateUncertain, ids)
}

func (b *Builder) items(state domain.MemoryState, ids []string) *Builder {
	for _, id := range ids {
		b.flow.AddMemoryItem(domain.MemoryItem{ID: id, State: state})
	}
	return b
}

// Map declares that source can fill target with the given probability.
func (b *Builder) Map(source, target string, probability float64) *Builder {
	b.flow.AddMapping(domain.NewMapping(source, target, probability))
	return b
}

// Constraint declares a standalone constraint over memory items.
func (b *Builder) Constraint(id string, value bool, params ...string) *Builder {
	b.flow.AddConstraint(domain.NewConstraint(id, value, params...))
	return b
}

// Order requires antecedent to run before precedent.
func (b *Builder) Order(antecedent, precedent string) *Builder {
	b.flow.AddPartialOrder(domain.PartialOrder{Antecedent: antecedent, Precedent: precedent})
	return b
}

// StartsWith anchors the plan on the named operator.
func (b *Builder) StartsWith(operator string) *Builder {
	b.startsWith = operator
	return b
}

// EndsWith makes the named operator the last step of the plan.
func (b *Builder) EndsWith(operator string) *Builder {
	b.endsWith = operator
	return b
}

// Catalog merges a loaded capability catalog into the flow.
func (b *Builder) Catalog(c domain.Catalog) *Builder {
	b.flow.AddCatalog(c)
	return b
}

// Goal adds one goal group made of the given components.
func (b *Builder) Goal(components ...domain.GoalComponent) *Builder {
	b.flow.AddGoal(domain.Goals(components...))
	return b
}

// GoalOperator adds a goal group per operator name.
func (b *Builder) GoalOperator(names ...string) *Builder {
	for _, n := range names {
		b.Goal(domain.OperatorGoal(n))
	}
	return b
}

// GoalObject adds a goal group reached by knowing a value of the type.
func (b *Builder) GoalObject(typeName string) *Builder {
	return b.Goal(domain.ObjectGoal(typeName))
}

// Operator starts the definition of an operator. Call End to return to the flow.
func (b *Builder) Operator(name string) *OperatorBuilder {
	ob := &OperatorBuilder{op: domain.OperatorDefinition{Name: name}, builder: b}
	b.operators = append(b.operators, ob)
	return ob
}

// Flow assembles the definition without validating it.
func (b *Builder) Flow() (*domain.FlowDefinition, error) {
	flow := *b.flow
	flow.Operators = append([]domain.OperatorDefinition(nil), b.flow.Operators...)
	flow.MemoryItems = append([]domain.MemoryItem(nil), b.flow.MemoryItems...)
	for _, ob := range b.operators {
		flow.AddOperator(ob.build())
	}

	for _, op := range flow.Operators {
		for _, id := range referenced(op) {
			if _, ok := flow.MemoryItem(id); !ok {
				flow.AddMemoryItem(domain.MemoryItem{ID: id})
			}
		}
	}

	if b.startsWith != "" {
		if err := flow.SetStart(b.startsWith); err != nil {
			return nil, fmt.Errorf("dsl: %w", err)
		}
	}
	if b.endsWith != "" {
		if err := flow.SetEnd(b.endsWith); err != nil {
			return nil, fmt.Errorf("dsl: %w", err)
		}
	}
	return &flow, nil
}

// Build assembles and validates the flow.
func (b *Builder) Build() (*domain.FlowDefinition, error) {
	flow, err := b.Flow()
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(flow).Err(); err != nil {
		return nil, err
	}
	return flow, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.FlowDefinition {
	flow, err := b.Build()
	if err != nil {
		panic(err)
	}
	return flow
}

func referenced(op domain.OperatorDefinition) []string {
	var ids []string
	collect := func(items []domain.SignatureItem) {
		for _, item := range items {
			ids = append(ids, item.Parameters...)
		}
	}
	collect(op.Inputs)
	for _, o := range op.Outcomes {
		collect(o.Conditions)
		collect(o.Effects)
	}
	return ids
}
