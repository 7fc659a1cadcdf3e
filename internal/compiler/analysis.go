package compiler

import (
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
)

// analyze derives the facts the encoding depends on: which values may be slot-filled,
// which are produced by operators, the slot ordering chains and whether uncertainty
// has to be tracked.
func (c *compilation) analyze() {
	for _, op := range c.flow.Operators {
		for _, o := range op.Outcomes {
			for _, p := range o.EffectParameters() {
				c.produced[p] = true
			}
		}
	}

	c.tracking = c.set.Confirm != 0 || c.set.LifeCycle.Has(options.UncertainOnUse)
	for _, item := range c.flow.MemoryItems {
		if item.KnowledgeState() == domain.MemoryStateUncertain {
			c.tracking = true
		}
	}

	forget := c.set.LifeCycle.Has(options.ForgetOnUse)
	for _, id := range c.referencedItems() {
		item, _ := c.flow.MemoryItem(id)
		if item.KnowledgeState() != domain.MemoryStateUnknown && !forget {
			continue
		}
		if c.set.Slot.Cost.LastResort() && c.produced[id] {
			continue
		}
		c.candidates = append(c.candidates, id)
	}

	if c.set.Slot.Ordered {
		for _, op := range c.flow.Operators {
			params := op.InputParameters()
			for i := 1; i < len(params); i++ {
				c.addChain(params[i], params[i-1])
			}
		}
	}
}

// referencedItems returns the memory items that some operator, constraint or object
// goal depends on, in first-seen order.
func (c *compilation) referencedItems() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if _, ok := c.flow.MemoryItem(id); !ok || seen[id] {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	for _, op := range c.flow.Operators {
		for _, p := range op.InputParameters() {
			add(p)
		}
		for _, o := range op.Outcomes {
			for _, s := range o.Conditions {
				for _, p := range s.Parameters {
					add(p)
				}
			}
		}
	}
	for _, con := range c.constraintDefs {
		for _, p := range con.Parameters {
			add(p)
		}
	}
	for _, group := range c.flow.Goals {
		for _, g := range group.Goals {
			goal, ok := g.(domain.GoalItem)
			if !ok || goal.Kind != domain.GoalObject {
				continue
			}
			for _, item := range c.flow.MemoryItems {
				if c.flow.IsSubtype(item.TypeName(), goal.Name) {
					c.goalItems[item.ID] = true
					add(item.ID)
				}
			}
		}
	}
	return out
}

// addChain records that x may only be slot-filled once y is known. An edge that would
// close a cycle is dropped.
func (c *compilation) addChain(x, y string) {
	if x == y {
		return
	}
	for _, e := range c.chains {
		if e[0] == x && e[1] == y {
			return
		}
	}
	if c.reaches(y, x) {
		c.logger.Debug("dropping slot order that would close a cycle", "item", x, "after", y)
		return
	}
	c.chains = append(c.chains, [2]string{x, y})
}

func (c *compilation) reaches(from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == to {
			return true
		}
		for _, e := range c.chains {
			if e[0] == current && !visited[e[1]] {
				visited[e[1]] = true
				queue = append(queue, e[1])
			}
		}
	}
	return false
}

func (c *compilation) isCandidate(id string) bool {
	for _, cand := range c.candidates {
		if cand == id {
			return true
		}
	}
	return false
}

// hasAsk reports whether the slot-filler action is needed at all.
func (c *compilation) hasAsk() bool {
	return len(c.candidates) > 0 || len(c.placeholders) > 0
}

// connectedMappings returns the mappings with a positive probability.
func (c *compilation) connectedMappings() []domain.MappingItem {
	var out []domain.MappingItem
	for _, m := range c.flow.Mappings {
		if m.Likelihood() > 0 {
			out = append(out, m)
		}
	}
	return out
}
