package compiler

import (
	"fmt"
	"strconv"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
)

const requirements = ":typing :negative-preconditions :disjunctive-preconditions " +
	":universal-preconditions :existential-preconditions :action-costs"

func (c *compilation) writeDomain() string {
	w := &writer{}
	w.open("(define (domain %s)", c.name)
	w.line("(:requirements %s)", requirements)
	c.writeTypes(w)
	c.writeConstants(w)
	c.writePredicates(w)
	w.line("(:functions (total-cost) - number (map-cost ?x - %s ?y - %s) - number)", domain.RootType, domain.RootType)

	if c.hasAsk() {
		c.writeAsk(w)
	}
	if len(c.connectedMappings()) > 0 {
		c.writeMap(w)
	}
	if c.tracking {
		c.writeConfirm(w)
	}
	if len(c.constraintDefs) > 0 {
		c.writeAssert(w)
	}
	for _, op := range c.flow.Operators {
		c.writeOperator(w, op)
	}
	w.close()
	return w.String()
}

func (c *compilation) writeTypes(w *writer) {
	w.open("(:types")
	w.line("%s %s %s - %s", domain.RootType, domain.ConstraintType, domain.TruthType, domain.ObjectType)
	for _, t := range c.flow.Types {
		w.line("%s - %s", c.types[t.Name], c.typeToken(t.ParentName()))
	}
	w.close()
}

func (c *compilation) writeConstants(w *writer) {
	w.open("(:constants")
	for _, item := range c.flow.MemoryItems {
		w.line("%s - %s", c.itemToken(item.ID), c.typeToken(item.TypeName()))
	}
	for _, p := range c.placeholders {
		w.line("%s - %s", p.token, c.typeToken(p.typeName))
	}
	for _, con := range c.constraintDefs {
		w.line("%s - %s", c.constraints[con.ID], domain.ConstraintType)
	}
	w.line("%s %s - %s", truthTrue, truthFalse, domain.TruthType)
	w.close()
}

func (c *compilation) writePredicates(w *writer) {
	g := domain.RootType
	w.open("(:predicates")
	w.line("(known ?x - %s)", g)
	w.line("(uncertain ?x - %s)", g)
	w.line("(slot_fillable ?x - %s)", g)
	w.line("(slot_after ?x - %s ?y - %s)", g, g)
	w.line("(connected ?x - %s ?y - %s)", g, g)
	w.line("(pending_slot ?x - %s)", g)
	w.line("(pending_map ?x - %s)", g)
	w.line("(determined ?c - %s)", domain.ConstraintType)
	w.line("(holds ?c - %s ?v - %s)", domain.ConstraintType, domain.TruthType)
	w.line("(constrains ?c - %s ?x - %s)", domain.ConstraintType, g)
	for _, op := range c.flow.Operators {
		w.line("%s", c.doneAtom(op.Name))
	}
	w.close()
}

func (c *compilation) writeAction(w *writer, name, params string, pre, eff []string) {
	w.open("(:action %s", name)
	w.line(":parameters (%s)", params)
	w.line(":precondition %s", conj(unique(pre)...))
	w.line(":effect %s", conj(unique(eff)...))
	w.close()
}

func (c *compilation) writeAsk(w *writer) {
	pre := []string{"(slot_fillable ?x)", "(not (known ?x))"}
	if c.set.Slot.Ordered {
		pre = append(pre, fmt.Sprintf("(forall (?y - %s) (imply (slot_after ?x ?y) (known ?y)))", domain.RootType))
	}
	eff := []string{"(known ?x)"}
	if c.set.Confirm.Has(options.ConfirmOnSlot) {
		eff = append(eff, "(uncertain ?x)")
	} else if c.tracking {
		eff = append(eff, "(not (uncertain ?x))")
	}
	if c.set.Slot.Timing != options.TimingRelaxed {
		eff = append(eff, "(pending_slot ?x)")
	}
	cost := 1
	if c.set.Slot.Cost.HigherCost() {
		cost = SlotCost
	}
	eff = append(eff, increaseCost(strconv.Itoa(cost)))
	c.writeAction(w, domain.ActionSlotFiller, "?x - "+domain.RootType, pre, eff)
}

func (c *compilation) writeMap(w *writer) {
	pre := []string{"(known ?x)"}
	if c.tracking {
		pre = append(pre, "(not (uncertain ?x))")
	}
	pre = append(pre, "(connected ?x ?y)", "(not (known ?y))")
	eff := []string{"(known ?y)"}
	if c.set.Confirm.Has(options.ConfirmOnMapping) {
		eff = append(eff, "(uncertain ?y)")
	}
	if c.set.Mapping.Timing != options.TimingRelaxed {
		eff = append(eff, "(pending_map ?y)")
	}
	eff = append(eff, increaseCost("(map-cost ?x ?y)"))
	params := fmt.Sprintf("?x - %s ?y - %s", domain.RootType, domain.RootType)
	c.writeAction(w, domain.ActionMapper, params, pre, eff)
}

func (c *compilation) writeConfirm(w *writer) {
	pre := []string{"(known ?x)", "(uncertain ?x)"}
	eff := []string{"(not (uncertain ?x))", increaseCost(strconv.Itoa(ConfirmCost))}
	c.writeAction(w, domain.ActionConfirm, "?x - "+domain.RootType, pre, eff)
}

func (c *compilation) writeAssert(w *writer) {
	pre := []string{
		"(not (determined ?c))",
		fmt.Sprintf("(forall (?x - %s) (imply (constrains ?c ?x) (known ?x)))", domain.RootType),
	}
	eff := []string{"(determined ?c)", "(holds ?c ?v)", increaseCost(strconv.Itoa(AssertCost))}
	params := fmt.Sprintf("?c - %s ?v - %s", domain.ConstraintType, domain.TruthType)
	c.writeAction(w, domain.ActionAssert, params, pre, eff)
}

// writeOperator emits one grounded action per outcome. Operators with several
// outcomes are determinised into actions suffixed with --outcome-<i>.
func (c *compilation) writeOperator(w *writer, op domain.OperatorDefinition) {
	tok := c.operators[op.Name]
	switch len(op.Outcomes) {
	case 0:
		c.writeOutcome(w, op, tok, domain.Outcome{})
	case 1:
		c.writeOutcome(w, op, tok, op.Outcomes[0])
	default:
		for i, o := range op.Outcomes {
			c.writeOutcome(w, op, fmt.Sprintf("%s--outcome-%d", tok, i), o)
		}
	}
}

func (c *compilation) writeOutcome(w *writer, op domain.OperatorDefinition, name string, outcome domain.Outcome) {
	needs := op.InputParameters()
	needed := make(map[string]bool)
	for _, p := range needs {
		needed[p] = true
	}
	for _, s := range outcome.Conditions {
		for _, p := range s.Parameters {
			if !needed[p] {
				needed[p] = true
				needs = append(needs, p)
			}
		}
	}

	c.writeAction(w, name, "", c.preconditions(op, outcome, needs, needed), c.effects(op, outcome, needs))
}

func (c *compilation) preconditions(op domain.OperatorDefinition, outcome domain.Outcome, needs []string, needed map[string]bool) []string {
	var pre []string
	for _, id := range needs {
		tok := c.itemToken(id)
		pre = append(pre, atom("known", tok))
		if c.tracking {
			pre = append(pre, not(atom("uncertain", tok)))
		}
	}
	for _, con := range append(signatureConstraints(op.Inputs), signatureConstraints(outcome.Conditions)...) {
		v, _ := con.Value()
		pre = append(pre, atom("holds", c.constraints[con.ID], truthToken(v)))
	}
	for _, po := range c.flow.PartialOrders {
		if po.Precedent == op.Name {
			pre = append(pre, c.doneAtom(po.Antecedent))
		}
	}
	if start := c.flow.StartsWith; start != "" && start != op.Name {
		pre = append(pre, c.doneAtom(start))
	}
	if end := c.flow.EndsWith; end != "" {
		pre = append(pre, not(c.doneAtom(end)))
	}
	if c.set.Slot.Timing == options.TimingImmediate {
		for _, id := range c.candidates {
			if !needed[id] {
				pre = append(pre, not(atom("pending_slot", c.itemToken(id))))
			}
		}
	}
	if c.set.Mapping.Timing == options.TimingImmediate {
		for _, id := range c.mappingTargets() {
			if !needed[id] {
				pre = append(pre, not(atom("pending_map", c.itemToken(id))))
			}
		}
	}
	return pre
}

func (c *compilation) effects(op domain.OperatorDefinition, outcome domain.Outcome, needs []string) []string {
	eff := []string{c.doneAtom(op.Name)}

	outputs := outcome.EffectParameters()
	isOutput := make(map[string]bool)
	for _, id := range outputs {
		isOutput[id] = true
		tok := c.itemToken(id)
		eff = append(eff, atom("known", tok))
		switch {
		case c.set.Confirm.Has(options.ConfirmOnDetermination):
			eff = append(eff, atom("uncertain", tok))
		case c.tracking:
			eff = append(eff, not(atom("uncertain", tok)))
		}
	}
	for _, con := range signatureConstraints(outcome.Effects) {
		v, _ := con.Value()
		tok := c.constraints[con.ID]
		eff = append(eff, atom("determined", tok), atom("holds", tok, truthToken(v)), not(atom("holds", tok, truthToken(!v))))
	}

	for _, id := range op.InputParameters() {
		if isOutput[id] {
			continue
		}
		tok := c.itemToken(id)
		if c.set.LifeCycle.Has(options.UncertainOnUse) {
			eff = append(eff, atom("uncertain", tok))
		}
		if c.set.LifeCycle.Has(options.ForgetOnUse) {
			eff = append(eff, not(atom("known", tok)))
		}
	}

	for _, id := range needs {
		tok := c.itemToken(id)
		if c.set.Slot.Timing != options.TimingRelaxed {
			eff = append(eff, not(atom("pending_slot", tok)))
		}
		if c.set.Mapping.Timing != options.TimingRelaxed {
			eff = append(eff, not(atom("pending_map", tok)))
		}
	}

	return append(eff, increaseCost(strconv.Itoa(op.EffectiveCost())))
}

func unique(formulas []string) []string {
	seen := make(map[string]bool, len(formulas))
	out := formulas[:0:0]
	for _, f := range formulas {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// mappingTargets returns the distinct targets of usable mappings.
func (c *compilation) mappingTargets() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range c.connectedMappings() {
		if !seen[m.Target] {
			seen[m.Target] = true
			out = append(out, m.Target)
		}
	}
	return out
}
