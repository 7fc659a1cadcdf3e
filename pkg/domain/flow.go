package domain

import (
	"fmt"
	"strings"
)

// FlowDefinition is the aggregate root of a flow. It only grows: there are no removal operations.
type FlowDefinition struct {
	Name          string
	Operators     []OperatorDefinition
	Types         []TypeNode
	MemoryItems   []MemoryItem
	Constraints   []Constraint
	PartialOrders []PartialOrder
	Mappings      []MappingItem
	Goals         []GoalItems
	StartsWith    string
	EndsWith      string
}

// NewFlowDefinition creates an empty flow.
func NewFlowDefinition(name string) *FlowDefinition {
	return &FlowDefinition{Name: name}
}

// AddOperator appends operators to the catalog.
func (f *FlowDefinition) AddOperator(ops ...OperatorDefinition) {
	f.Operators = append(f.Operators, ops...)
}

// AddType appends a type node. Declared children that are not yet present
// are added as nodes whose parent is t.
func (f *FlowDefinition) AddType(t TypeNode) {
	f.Types = append(f.Types, t)
	for _, child := range t.Children {
		if _, ok := f.Type(child); ok {
			continue
		}
		f.Types = append(f.Types, TypeNode{Name: child, Parent: t.Name})
	}
}

// AddMemoryItem appends memory items.
func (f *FlowDefinition) AddMemoryItem(items ...MemoryItem) {
	f.MemoryItems = append(f.MemoryItems, items...)
}

// AddConstraint appends standalone constraints.
func (f *FlowDefinition) AddConstraint(cs ...Constraint) {
	f.Constraints = append(f.Constraints, cs...)
}

// AddPartialOrder appends ordering hints.
func (f *FlowDefinition) AddPartialOrder(orders ...PartialOrder) {
	f.PartialOrders = append(f.PartialOrders, orders...)
}

// AddMapping appends value mappings.
func (f *FlowDefinition) AddMapping(mappings ...MappingItem) {
	f.Mappings = append(f.Mappings, mappings...)
}

// AddGoal appends goal groups.
func (f *FlowDefinition) AddGoal(goals ...GoalItems) {
	f.Goals = append(f.Goals, goals...)
}

// AddCatalog merges a capability catalog: all of its operators, plus the memory
// items and types that the flow does not declare yet.
func (f *FlowDefinition) AddCatalog(c Catalog) {
	f.AddOperator(c.Operators...)
	for _, t := range c.Types {
		if _, ok := f.Type(t.Name); !ok {
			f.AddType(t)
		}
	}
	for _, item := range c.MemoryItems {
		if _, ok := f.MemoryItem(item.ID); !ok {
			f.AddMemoryItem(item)
		}
	}
}

// SetStart anchors the plan on a declared operator.
func (f *FlowDefinition) SetStart(operator string) error {
	if _, ok := f.Operator(operator); !ok {
		return fmt.Errorf("%w: start operator %q", ErrUnknownEntity, operator)
	}
	f.StartsWith = operator
	return nil
}

// SetEnd anchors the end of the plan on a declared operator.
func (f *FlowDefinition) SetEnd(operator string) error {
	if _, ok := f.Operator(operator); !ok {
		return fmt.Errorf("%w: end operator %q", ErrUnknownEntity, operator)
	}
	f.EndsWith = operator
	return nil
}

// Operator looks up an operator by exact name.
func (f *FlowDefinition) Operator(name string) (OperatorDefinition, bool) {
	for _, op := range f.Operators {
		if op.Name == name {
			return op, true
		}
	}
	return OperatorDefinition{}, false
}

// OperatorFold looks up an operator by name, ignoring case.
func (f *FlowDefinition) OperatorFold(name string) (OperatorDefinition, bool) {
	if op, ok := f.Operator(name); ok {
		return op, true
	}
	for _, op := range f.Operators {
		if strings.EqualFold(op.Name, name) {
			return op, true
		}
	}
	return OperatorDefinition{}, false
}

// MemoryItem looks up a memory item by id.
func (f *FlowDefinition) MemoryItem(id string) (MemoryItem, bool) {
	for _, item := range f.MemoryItems {
		if item.ID == id {
			return item, true
		}
	}
	return MemoryItem{}, false
}

// Type looks up a declared type node by name.
func (f *FlowDefinition) Type(name string) (TypeNode, bool) {
	for _, t := range f.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeNode{}, false
}

// HasType reports whether name is a declared type or the root type.
func (f *FlowDefinition) HasType(name string) bool {
	if name == RootType {
		return true
	}
	_, ok := f.Type(name)
	return ok
}

// IsSubtype reports whether child equals ancestor or descends from it.
// Cycles in a malformed hierarchy terminate the walk.
func (f *FlowDefinition) IsSubtype(child, ancestor string) bool {
	seen := make(map[string]struct{})
	for current := child; ; {
		if current == ancestor {
			return true
		}
		if current == RootType {
			return false
		}
		if _, ok := seen[current]; ok {
			return false
		}
		seen[current] = struct{}{}
		t, ok := f.Type(current)
		if !ok {
			return false
		}
		current = t.ParentName()
	}
}

// PDDL is a compiled planning problem.
type PDDL struct {
	Domain  string `json:"domain"`
	Problem string `json:"problem"`
}

// Catalog is a set of capabilities loaded from outside a flow.
type Catalog struct {
	Operators   []OperatorDefinition
	MemoryItems []MemoryItem
	Types       []TypeNode
}
