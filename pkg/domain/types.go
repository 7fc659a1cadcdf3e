package domain

// MemoryState is the knowledge state of a memory item at planning time.
type MemoryState string

const (
	MemoryStateUnknown   MemoryState = "UNKNOWN"
	MemoryStateKnown     MemoryState = "KNOWN"
	MemoryStateUncertain MemoryState = "UNCERTAIN"
)

// Valid reports whether s is a recognized state. The empty state reads as UNKNOWN.
func (s MemoryState) Valid() bool {
	switch s {
	case "", MemoryStateUnknown, MemoryStateKnown, MemoryStateUncertain:
		return true
	}
	return false
}

// GoalKind selects what a GoalItem resolves to.
type GoalKind string

const (
	// GoalOperator goals are reached once the named operator has executed.
	GoalOperator GoalKind = "OPERATOR"
	// GoalObject goals are reached once some value of the named type is known.
	GoalObject GoalKind = "OBJECT"
)

// TypeNode is one node of the type hierarchy.
type TypeNode struct {
	Name     string   `json:"name" yaml:"name" mapstructure:"name"`
	Parent   string   `json:"parent,omitempty" yaml:"parent,omitempty" mapstructure:"parent"`
	Children []string `json:"children,omitempty" yaml:"children,omitempty" mapstructure:"children"`
}

// ParentName returns the declared parent, or RootType.
func (t TypeNode) ParentName() string {
	if t.Parent == "" {
		return RootType
	}
	return t.Parent
}

// MemoryItem is a variable whose value may or may not be available.
type MemoryItem struct {
	ID    string      `json:"id" yaml:"id" mapstructure:"id"`
	Type  string      `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	State MemoryState `json:"state,omitempty" yaml:"state,omitempty" mapstructure:"state"`
}

// KnowledgeState returns the item state, defaulting to UNKNOWN.
func (m MemoryItem) KnowledgeState() MemoryState {
	if m.State == "" {
		return MemoryStateUnknown
	}
	return m.State
}

// TypeName returns the declared type, or RootType.
func (m MemoryItem) TypeName() string {
	if m.Type == "" {
		return RootType
	}
	return m.Type
}

// Constraint is a named condition over types or memory items.
// TruthValue must be set before compilation.
type Constraint struct {
	ID         string   `json:"id" yaml:"id" mapstructure:"id"`
	Parameters []string `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
	TruthValue *bool    `json:"truth_value,omitempty" yaml:"truth_value,omitempty" mapstructure:"truth_value"`
}

// NewConstraint returns a constraint with its truth value set.
func NewConstraint(id string, value bool, params ...string) Constraint {
	return Constraint{ID: id, Parameters: params, TruthValue: &value}
}

// Value returns the truth value and whether it was set.
func (c Constraint) Value() (bool, bool) {
	if c.TruthValue == nil {
		return false, false
	}
	return *c.TruthValue, true
}

func (Constraint) goalComponent() {}

// SignatureItem groups parameter references (memory item ids) with nested constraints.
type SignatureItem struct {
	Parameters  []string     `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty" mapstructure:"constraints"`
}

// Signature is shorthand for a SignatureItem without constraints.
func Signature(params ...string) SignatureItem {
	return SignatureItem{Parameters: params}
}

// Outcome is one possible result of an operator.
type Outcome struct {
	Conditions  []SignatureItem `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
	Effects     []SignatureItem `json:"effects,omitempty" yaml:"effects,omitempty" mapstructure:"effects"`
	Probability *float64        `json:"probability,omitempty" yaml:"probability,omitempty" mapstructure:"probability"`
}

// EffectParameters returns the memory items this outcome makes known, in order.
func (o Outcome) EffectParameters() []string {
	return flatten(o.Effects)
}

// OperatorDefinition describes an agent action.
type OperatorDefinition struct {
	Name     string          `json:"name" yaml:"name" mapstructure:"name"`
	Cost     *int            `json:"cost,omitempty" yaml:"cost,omitempty" mapstructure:"cost"`
	Inputs   []SignatureItem `json:"inputs,omitempty" yaml:"inputs,omitempty" mapstructure:"inputs"`
	Outcomes []Outcome       `json:"outcomes,omitempty" yaml:"outcomes,omitempty" mapstructure:"outcomes"`
}

// EffectiveCost returns the declared cost, or DefaultCost.
func (o OperatorDefinition) EffectiveCost() int {
	if o.Cost == nil {
		return DefaultCost
	}
	return *o.Cost
}

// InputParameters returns every input memory item in declaration order, without repeats.
func (o OperatorDefinition) InputParameters() []string {
	return flatten(o.Inputs)
}

// OutputParameters returns the effects of outcome i, or nil when i is out of range.
func (o OperatorDefinition) OutputParameters(i int) []string {
	if i < 0 || i >= len(o.Outcomes) {
		return nil
	}
	return o.Outcomes[i].EffectParameters()
}

// PartialOrder asks for Antecedent to execute before Precedent.
type PartialOrder struct {
	Antecedent string `json:"antecedent" yaml:"antecedent" mapstructure:"antecedent"`
	Precedent  string `json:"precedent" yaml:"precedent" mapstructure:"precedent"`
}

// MappingItem declares that the known value of Source may serve as the value of Target.
type MappingItem struct {
	Source      string   `json:"source" yaml:"source" mapstructure:"source"`
	Target      string   `json:"target" yaml:"target" mapstructure:"target"`
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty" mapstructure:"probability"`
}

// NewMapping returns a mapping with an explicit probability.
func NewMapping(source, target string, probability float64) MappingItem {
	return MappingItem{Source: source, Target: target, Probability: &probability}
}

// Likelihood returns the mapping probability, defaulting to 1.
func (m MappingItem) Likelihood() float64 {
	if m.Probability == nil {
		return 1
	}
	return *m.Probability
}

// GoalComponent is a closed variant: GoalItem or Constraint.
type GoalComponent interface {
	goalComponent()
}

// GoalItem names an operator or a type to reach.
type GoalItem struct {
	Name string   `json:"name" yaml:"name" mapstructure:"name"`
	Kind GoalKind `json:"kind" yaml:"kind" mapstructure:"kind"`
}

func (GoalItem) goalComponent() {}

// OperatorGoal returns a goal reached by executing the named operator.
func OperatorGoal(name string) GoalItem {
	return GoalItem{Name: name, Kind: GoalOperator}
}

// ObjectGoal returns a goal reached by knowing a value of the named type.
func ObjectGoal(typeName string) GoalItem {
	return GoalItem{Name: typeName, Kind: GoalObject}
}

// GoalItems is one group of goal components, combined with other groups per the goal options.
type GoalItems struct {
	Goals []GoalComponent
}

// Goals builds a GoalItems group.
func Goals(components ...GoalComponent) GoalItems {
	return GoalItems{Goals: components}
}

func flatten(items []SignatureItem) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, item := range items {
		for _, p := range item.Parameters {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}
