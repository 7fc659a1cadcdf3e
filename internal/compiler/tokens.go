package compiler

import (
	"fmt"
	"regexp"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/transform"
)

const (
	truthTrue  = "truth-true"
	truthFalse = "truth-false"
)

var (
	safeToken  = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	unsafeRune = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// truthToken returns the constant for a truth value.
func truthToken(v bool) string {
	if v {
		return truthTrue
	}
	return truthFalse
}

// tokenize normalizes every identifier that reaches the PDDL text.
func (c *compilation) tokenize() error {
	c.name = unsafeRune.ReplaceAllString(transform.Canonical(c.flow.Name), "_")
	switch {
	case c.name == "":
		c.name = "flowplan"
	case !safeToken.MatchString(c.name):
		c.name = "flow_" + c.name
	}

	for _, t := range c.flow.Types {
		tok, err := c.reg.Normalize(t.Name)
		if err != nil {
			return err
		}
		c.types[t.Name] = tok
	}
	for _, item := range c.flow.MemoryItems {
		tok, err := c.reg.Normalize(item.ID)
		if err != nil {
			return err
		}
		c.items[item.ID] = tok
	}
	for _, op := range c.flow.Operators {
		tok, err := c.reg.Normalize(op.Name)
		if err != nil {
			return err
		}
		c.operators[op.Name] = tok
	}

	if c.lookahead > 0 {
		names := append([]string{domain.RootType}, typeNames(c.flow.Types)...)
		for _, name := range names {
			for i := range c.lookahead {
				raw := fmt.Sprintf("new_object_%s_%d", c.typeToken(name), i)
				tok, err := c.reg.Normalize(raw)
				if err != nil {
					return err
				}
				c.placeholders = append(c.placeholders, placeholder{token: tok, typeName: name})
			}
		}
	}

	return c.tokenizeConstraints()
}

// tokenizeConstraints gives every constraint a constant. Identifiers that are not valid
// PDDL names, or that clash with another constant, get a synthesized token.
func (c *compilation) tokenizeConstraints() error {
	taken := map[string]bool{truthTrue: true, truthFalse: true}
	for _, tok := range c.items {
		taken[tok] = true
	}
	for _, p := range c.placeholders {
		taken[p.token] = true
	}

	for _, con := range collectConstraints(c.flow) {
		if _, ok := c.constraints[con.ID]; ok {
			continue
		}
		tok := transform.Canonical(con.ID)
		var err error
		if safeToken.MatchString(tok) && !taken[tok] {
			tok, err = c.reg.Normalize(con.ID)
		} else {
			tok = fmt.Sprintf("constraint_%d", len(c.constraintDefs))
			err = c.reg.Register(con.ID, tok)
		}
		if err != nil {
			return err
		}
		taken[tok] = true
		c.constraints[con.ID] = tok
		c.constraintDefs = append(c.constraintDefs, con)
	}
	return nil
}

// collectConstraints returns every constraint of the flow, wherever it is declared, in first-seen order.
func collectConstraints(flow *domain.FlowDefinition) []domain.Constraint {
	var out []domain.Constraint
	out = append(out, flow.Constraints...)
	for _, op := range flow.Operators {
		out = append(out, signatureConstraints(op.Inputs)...)
		for _, o := range op.Outcomes {
			out = append(out, signatureConstraints(o.Conditions)...)
			out = append(out, signatureConstraints(o.Effects)...)
		}
	}
	for _, group := range flow.Goals {
		for _, g := range group.Goals {
			if con, ok := g.(domain.Constraint); ok {
				out = append(out, con)
			}
		}
	}
	return out
}

func signatureConstraints(items []domain.SignatureItem) []domain.Constraint {
	var out []domain.Constraint
	for _, s := range items {
		out = append(out, s.Constraints...)
	}
	return out
}

func typeNames(types []domain.TypeNode) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.Name
	}
	return out
}

func (c *compilation) typeToken(name string) string {
	if name == "" || name == domain.RootType {
		return domain.RootType
	}
	return c.types[name]
}

func (c *compilation) itemToken(id string) string { return c.items[id] }

func (c *compilation) doneAtom(op string) string {
	return "(has_done_" + c.operators[op] + ")"
}
