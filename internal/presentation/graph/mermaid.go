package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowplan/pkg/domain"
)

// PlanOverlay marks the operators a plan executes.
type PlanOverlay struct {
	Plan domain.Plan
}

// GenerateMermaid produces a Mermaid flowchart of a flow's dataflow.
// It applies semantic styling:
// - Operator: [[Subroutine]]
// - Known memory item: ([Stadium])
// - Other memory item: [/Parallelogram/]
// Inputs point into operators, outputs out of them and mappings are dotted
// edges labelled with their probability. With an overlay, executed operators
// are numbered in plan order and styled.
func GenerateMermaid(flow *domain.FlowDefinition, overlay *PlanOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, item := range flow.MemoryItems {
		opener, closer := "[/", "/]"
		if item.KnowledgeState() != domain.MemoryStateUnknown {
			opener, closer = "([", "])"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", itemID(item.ID), opener, escape(item.ID), closer)
	}

	order := map[string][]int{}
	if overlay != nil {
		for i, a := range overlay.Plan.Actions() {
			order[a.Name] = append(order[a.Name], i)
		}
	}

	for _, op := range flow.Operators {
		label := escape(op.Name)
		if steps, ok := order[op.Name]; ok {
			label = fmt.Sprintf("%s <br/> step %s", label, joinInts(steps))
		}
		fmt.Fprintf(&sb, "    %s[[\"%s\"]]\n", opID(op.Name), label)

		for _, in := range op.InputParameters() {
			fmt.Fprintf(&sb, "    %s --> %s\n", itemID(in), opID(op.Name))
		}
		for i, o := range op.Outcomes {
			arrow := "-->"
			if len(op.Outcomes) > 1 {
				arrow = fmt.Sprintf("-- \"outcome %d\" -->", i)
			}
			for _, out := range o.EffectParameters() {
				fmt.Fprintf(&sb, "    %s %s %s\n", opID(op.Name), arrow, itemID(out))
			}
		}
	}

	for _, m := range flow.Mappings {
		fmt.Fprintf(&sb, "    %s -. \"%.2g\" .-> %s\n", itemID(m.Source), m.Likelihood(), itemID(m.Target))
	}

	for _, po := range flow.PartialOrders {
		fmt.Fprintf(&sb, "    %s -. \"before\" .-> %s\n", opID(po.Antecedent), opID(po.Precedent))
	}

	if overlay != nil && len(order) > 0 {
		sb.WriteString("\n    %% Plan Overlay\n")
		sb.WriteString("    classDef planned fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		for _, op := range flow.Operators {
			if _, ok := order[op.Name]; ok {
				fmt.Fprintf(&sb, "    class %s planned;\n", opID(op.Name))
			}
		}
	}

	return sb.String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}

func opID(name string) string   { return "op_" + sanitizeMermaidID(name) }
func itemID(name string) string { return "item_" + sanitizeMermaidID(name) }

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
