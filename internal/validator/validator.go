package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Check names, in the order they run.
const (
	CheckStartAnchor   = "start_anchor"
	CheckEndAnchor     = "end_anchor"
	CheckGoals         = "goal_items"
	CheckMappings      = "mappings"
	CheckConstraints   = "constraints"
	CheckMemoryItems   = "memory_items"
	CheckTypeHierarchy = "type_hierarchy"
	CheckOperators     = "operator_definitions"
	CheckPartialOrders = "partial_orders"
	CheckDuplicates    = "duplicate_names"
	CheckReservedNames = "reserved_names"
)

// Check is the outcome of one validation check.
type Check struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
	Entity  string `json:"entity,omitempty"`
}

// Result is the outcome of the full battery.
type Result struct {
	Flow   string  `json:"flow"`
	Checks []Check `json:"checks"`
}

// Valid reports whether every check passed.
func (r Result) Valid() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failing checks.
func (r Result) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Err returns nil for a valid flow, or a *domain.ValidationError naming every failing check.
func (r Result) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	diags := make([]domain.Diagnostic, len(failures))
	for i, f := range failures {
		diags[i] = domain.Diagnostic{Check: f.Name, Entity: f.Entity, Message: f.Message}
	}
	return &domain.ValidationError{Flow: r.Flow, Diagnostics: diags}
}

type checkFunc func(*domain.FlowDefinition) Check

var battery = []struct {
	name string
	fn   checkFunc
}{
	{CheckStartAnchor, startAnchor},
	{CheckEndAnchor, endAnchor},
	{CheckGoals, goals},
	{CheckMappings, mappings},
	{CheckConstraints, constraints},
	{CheckMemoryItems, memoryItems},
	{CheckTypeHierarchy, typeHierarchy},
	{CheckOperators, operators},
	{CheckPartialOrders, partialOrders},
	{CheckDuplicates, duplicates},
	{CheckReservedNames, reservedNames},
}

// Validate runs every check against flow. Checks are independent: each reports
// its first failure and a failing check never stops the others.
func Validate(flow *domain.FlowDefinition) Result {
	result := Result{Flow: flow.Name}
	for _, b := range battery {
		c := b.fn(flow)
		c.Name = b.name
		result.Checks = append(result.Checks, c)
	}
	return result
}

func pass() Check { return Check{Passed: true} }

func fail(entity, format string, args ...any) Check {
	return Check{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func isOperator(flow *domain.FlowDefinition, name string) bool {
	_, ok := flow.Operator(name)
	return ok
}

func isMemoryItem(flow *domain.FlowDefinition, id string) bool {
	_, ok := flow.MemoryItem(id)
	return ok
}

func startAnchor(flow *domain.FlowDefinition) Check {
	if flow.StartsWith != "" && !isOperator(flow, flow.StartsWith) {
		return fail(flow.StartsWith, "start operator %q not found among operators", flow.StartsWith)
	}
	return pass()
}

func endAnchor(flow *domain.FlowDefinition) Check {
	if flow.EndsWith != "" && !isOperator(flow, flow.EndsWith) {
		return fail(flow.EndsWith, "end operator %q not found among operators", flow.EndsWith)
	}
	return pass()
}

// constraint checks one constraint: parameters name a type or a memory item and the
// truth value is set.
func constraint(flow *domain.FlowDefinition, c domain.Constraint) (Check, bool) {
	for _, p := range c.Parameters {
		if !flow.HasType(p) && !isMemoryItem(flow, p) {
			return fail(c.ID, "unknown parameter %q for constraint %q", p, c.ID), false
		}
	}
	if _, ok := c.Value(); !ok {
		return fail(c.ID, "must specify truth value for constraint %q", c.ID), false
	}
	return pass(), true
}

func goals(flow *domain.FlowDefinition) Check {
	for i, group := range flow.Goals {
		if len(group.Goals) == 0 {
			return fail(fmt.Sprintf("goal group %d", i), "goal group is empty")
		}
		for _, g := range group.Goals {
			switch goal := g.(type) {
			case domain.GoalItem:
				switch goal.Kind {
				case domain.GoalOperator:
					if !isOperator(flow, goal.Name) {
						return fail(goal.Name, "goal names unknown operator %q", goal.Name)
					}
				case domain.GoalObject:
					if !flow.HasType(goal.Name) {
						return fail(goal.Name, "goal names unknown type %q", goal.Name)
					}
				default:
					return fail(goal.Name, "unknown goal kind %q", goal.Kind)
				}
			case domain.Constraint:
				if c, ok := constraint(flow, goal); !ok {
					return c
				}
			default:
				return fail("", "goals are either goal items or constraints, got %T", g)
			}
		}
	}
	return pass()
}

func mappings(flow *domain.FlowDefinition) Check {
	for _, m := range flow.Mappings {
		entity := m.Source + " -> " + m.Target
		if p := m.Likelihood(); !inUnitRange(p) {
			return fail(entity, "mapping probability %v is outside [0, 1]", p)
		}
		if !isMemoryItem(flow, m.Source) || !isMemoryItem(flow, m.Target) {
			return fail(entity, "mapping source or target is not a declared memory item")
		}
	}
	return pass()
}

// inUnitRange is false for NaN.
func inUnitRange(p float64) bool {
	return p >= 0 && p <= 1
}

func constraints(flow *domain.FlowDefinition) Check {
	for _, c := range flow.Constraints {
		if check, ok := constraint(flow, c); !ok {
			return check
		}
	}
	return pass()
}

func memoryItems(flow *domain.FlowDefinition) Check {
	for _, item := range flow.MemoryItems {
		if !item.State.Valid() {
			return fail(item.ID, "memory item %q has unknown state %q", item.ID, item.State)
		}
		if !flow.HasType(item.TypeName()) {
			return fail(item.ID, "memory item %q has unknown type %q", item.ID, item.Type)
		}
	}
	return pass()
}

// typeHierarchy checks that every parent resolves to a declared type or the root,
// then that every type reaches the root without a cycle.
func typeHierarchy(flow *domain.FlowDefinition) Check {
	for _, t := range flow.Types {
		if !flow.HasType(t.ParentName()) {
			return fail(t.Name, "type %q has unknown parent %q", t.Name, t.Parent)
		}
	}
	for _, t := range flow.Types {
		if !flow.IsSubtype(t.Name, domain.RootType) {
			return fail(t.Name, "type %q is part of a cycle in the type hierarchy", t.Name)
		}
	}
	return pass()
}

func signature(flow *domain.FlowDefinition, op string, items []domain.SignatureItem) (Check, bool) {
	for _, s := range items {
		for _, p := range s.Parameters {
			if !isMemoryItem(flow, p) {
				return fail(op, "unknown parameter %q for operator %q", p, op), false
			}
		}
		for _, c := range s.Constraints {
			if check, ok := constraint(flow, c); !ok {
				check.Entity = op
				return check, false
			}
		}
	}
	return pass(), true
}

func operators(flow *domain.FlowDefinition) Check {
	for _, op := range flow.Operators {
		if strings.TrimSpace(op.Name) == "" {
			return fail("", "operator name must not be empty")
		}
		if op.EffectiveCost() < 0 {
			return fail(op.Name, "operator %q has negative cost %d", op.Name, op.EffectiveCost())
		}
		if c, ok := signature(flow, op.Name, op.Inputs); !ok {
			return c
		}
		for _, outcome := range op.Outcomes {
			if p := outcome.Probability; p != nil && !inUnitRange(*p) {
				return fail(op.Name, "outcome probability %v is outside [0, 1]", *p)
			}
			if c, ok := signature(flow, op.Name, outcome.Conditions); !ok {
				return c
			}
			if c, ok := signature(flow, op.Name, outcome.Effects); !ok {
				return c
			}
		}
	}
	return pass()
}

func partialOrders(flow *domain.FlowDefinition) Check {
	for _, po := range flow.PartialOrders {
		for _, name := range []string{po.Antecedent, po.Precedent} {
			if !isOperator(flow, name) {
				return fail(name, "partial order names unknown operator %q", name)
			}
		}
	}
	return pass()
}

func duplicates(flow *domain.FlowDefinition) Check {
	categories := []struct {
		kind  string
		names []string
	}{
		{"operators", collect(flow.Operators, func(o domain.OperatorDefinition) string { return o.Name })},
		{"memory items", collect(flow.MemoryItems, func(m domain.MemoryItem) string { return m.ID })},
		{"types", collect(flow.Types, func(t domain.TypeNode) string { return t.Name })},
		{"constraints", collect(flow.Constraints, func(c domain.Constraint) string { return c.ID })},
	}
	for _, cat := range categories {
		if dups := duplicatesFold(cat.names); len(dups) > 0 {
			return fail(dups[0], "duplicate names for %s: %s", cat.kind, strings.Join(dups, ", "))
		}
	}
	return pass()
}

func reservedNames(flow *domain.FlowDefinition) Check {
	for _, op := range flow.Operators {
		if domain.IsReservedAction(strings.ToLower(op.Name)) {
			return fail(op.Name, "operator name %q is reserved for pseudo-actions", op.Name)
		}
	}
	for _, t := range flow.Types {
		if domain.IsBuiltinType(strings.ToLower(t.Name)) {
			return fail(t.Name, "type name %q is reserved", t.Name)
		}
	}
	return pass()
}

func collect[T any](items []T, name func(T) string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = name(item)
	}
	return out
}

// duplicatesFold returns the first spelling of every name that appears more than once, ignoring case.
func duplicatesFold(names []string) []string {
	first := make(map[string]string)
	counts := make(map[string]int)
	for _, n := range names {
		key := strings.ToLower(n)
		if _, ok := first[key]; !ok {
			first[key] = n
		}
		counts[key]++
	}
	var out []string
	for key, n := range counts {
		if n > 1 {
			out = append(out, first[key])
		}
	}
	sort.Strings(out)
	return out
}
