package compiler

import (
	"fmt"
	"math"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
)

func (c *compilation) writeProblem() string {
	w := &writer{}
	w.open("(define (problem %s-problem)", c.name)
	w.line("(:domain %s)", c.name)
	c.writeInit(w)
	w.line("(:goal %s)", c.goal())
	w.line("(:metric minimize (total-cost))")
	w.close()
	return w.String()
}

func (c *compilation) writeInit(w *writer) {
	w.open("(:init")
	w.line("(= (total-cost) 0)")
	for _, item := range c.flow.MemoryItems {
		tok := c.itemToken(item.ID)
		switch item.KnowledgeState() {
		case domain.MemoryStateKnown:
			w.line("%s", atom("known", tok))
		case domain.MemoryStateUncertain:
			w.line("%s", atom("known", tok))
			w.line("%s", atom("uncertain", tok))
		}
	}
	for _, id := range c.candidates {
		w.line("%s", atom("slot_fillable", c.itemToken(id)))
	}
	for _, p := range c.placeholders {
		w.line("%s", atom("slot_fillable", p.token))
	}
	for _, e := range c.chains {
		if c.isCandidate(e[0]) {
			w.line("%s", atom("slot_after", c.itemToken(e[0]), c.itemToken(e[1])))
		}
	}
	for _, m := range c.connectedMappings() {
		src, dst := c.itemToken(m.Source), c.itemToken(m.Target)
		w.line("%s", atom("connected", src, dst))
		w.line("(= (map-cost %s %s) %d)", src, dst, mappingCost(m.Likelihood()))
	}
	for _, con := range c.constraintDefs {
		for _, p := range con.Parameters {
			if _, ok := c.flow.MemoryItem(p); ok {
				w.line("%s", atom("constrains", c.constraints[con.ID], c.itemToken(p)))
			}
		}
	}
	w.close()
}

// mappingCost weights a mapping inversely by its probability.
func mappingCost(p float64) int {
	return int(math.Ceil(MappingCost / p))
}

// goal combines the goal groups per the goal options, then adds the timing and anchor
// requirements that hold at the end of every plan.
func (c *compilation) goal() string {
	var groups [][]string
	for _, group := range c.flow.Goals {
		var parts []string
		for _, g := range group.Goals {
			parts = append(parts, c.goalFormula(g))
		}
		groups = append(groups, parts)
	}

	var top []string
	switch c.set.Goal {
	case options.GoalOrAnd:
		var alternatives []string
		for _, parts := range groups {
			alternatives = append(alternatives, conj(parts...))
		}
		if len(alternatives) > 0 {
			top = append(top, disj(alternatives...))
		}
	case options.GoalAndOr:
		for _, parts := range groups {
			top = append(top, disj(parts...))
		}
	default:
		for _, parts := range groups {
			top = append(top, parts...)
		}
	}

	if c.set.Slot.Timing == options.TimingEventual {
		for _, id := range c.candidates {
			if !c.goalItems[id] {
				top = append(top, not(atom("pending_slot", c.itemToken(id))))
			}
		}
	}
	if c.set.Mapping.Timing == options.TimingEventual {
		for _, id := range c.mappingTargets() {
			if !c.goalItems[id] {
				top = append(top, not(atom("pending_map", c.itemToken(id))))
			}
		}
	}
	if end := c.flow.EndsWith; end != "" {
		top = append(top, c.doneAtom(end))
	}

	if len(top) == 1 {
		return "(and " + top[0] + ")"
	}
	return conj(top...)
}

func (c *compilation) goalFormula(g domain.GoalComponent) string {
	switch goal := g.(type) {
	case domain.GoalItem:
		if goal.Kind == domain.GoalObject {
			return fmt.Sprintf("(exists (?x - %s) (known ?x))", c.typeToken(goal.Name))
		}
		return c.doneAtom(goal.Name)
	case domain.Constraint:
		v, _ := goal.Value()
		return atom("holds", c.constraints[goal.ID], truthToken(v))
	}
	panic(fmt.Sprintf("compiler: unexpected goal component %T", g))
}
