package domain

import (
	"encoding/json"
	"iter"
)

// StepKind tags the variant of a Step.
type StepKind string

const (
	StepAction     StepKind = "action"
	StepConstraint StepKind = "constraint"
)

// Step is a closed variant: ActionStep or ConstraintStep.
type Step interface {
	Kind() StepKind
	step()
}

// ActionStep is the invocation of an operator or a pseudo-action.
type ActionStep struct {
	Name    string
	Inputs  []string
	Outputs []string
}

func (ActionStep) Kind() StepKind { return StepAction }
func (ActionStep) step()          {}

// IsPseudo reports whether the step is a slot-fill, mapping, confirmation or assertion.
func (a ActionStep) IsPseudo() bool { return IsReservedAction(a.Name) }

func (a ActionStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    StepKind `json:"kind"`
		Name    string   `json:"name"`
		Inputs  []string `json:"inputs"`
		Outputs []string `json:"outputs"`
	}{StepAction, a.Name, nonNil(a.Inputs), nonNil(a.Outputs)})
}

// ConstraintStep asserts the truth value of a constraint.
type ConstraintStep struct {
	ID         string
	TruthValue bool
}

func (ConstraintStep) Kind() StepKind { return StepConstraint }
func (ConstraintStep) step()          {}

func (c ConstraintStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind       StepKind `json:"kind"`
		ID         string   `json:"id"`
		TruthValue bool     `json:"truth_value"`
	}{StepConstraint, c.ID, c.TruthValue})
}

// Plan is a finite sequence of steps. Iterating it does not consume it.
type Plan struct {
	Steps []Step `json:"steps"`
	// Substitutions maps a mapped memory item to the ultimate source of its value.
	// It is only populated when mapper steps are collapsed.
	Substitutions map[string]string `json:"substitutions,omitempty"`
}

// All yields the steps with their index.
func (p Plan) All() iter.Seq2[int, Step] {
	return func(yield func(int, Step) bool) {
		for i, s := range p.Steps {
			if !yield(i, s) {
				return
			}
		}
	}
}

// Actions returns the action steps in order.
func (p Plan) Actions() []ActionStep {
	var out []ActionStep
	for _, s := range p.Steps {
		if a, ok := s.(ActionStep); ok {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of steps.
func (p Plan) Len() int { return len(p.Steps) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
