package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/flowplan/internal/presentation/graph"
	"github.com/aretw0/flowplan/pkg/dsl"
	"github.com/aretw0/flowplan/pkg/domain"
)

func sampleFlow() *domain.FlowDefinition {
	return dsl.New("errors").
		Known("Database Link").
		Item("backup_link", "").
		Map("backup_link", "Database Link", 0.5).
		Operator("Find Errors").In("Database Link").Out("list_of_errors").End().
		Operator("Try Fix").In("list_of_errors").
		Outcome().Out("fixed").
		Outcome().
		End().
		Order("Find Errors", "Try Fix").
		GoalOperator("Try Fix").
		MustBuild()
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		overlay  *graph.PlanOverlay
		contains []string
		absent   []string
	}{
		{
			name: "Shapes And Edges",
			contains: []string{
				"graph LR",
				`item_Database_Link(["Database Link"])`,
				`item_backup_link[/"backup_link"/]`,
				`op_Find_Errors[["Find Errors"]]`,
				"item_Database_Link --> op_Find_Errors",
				"op_Find_Errors --> item_list_of_errors",
				`op_Try_Fix -- "outcome 0" --> item_fixed`,
				`item_backup_link -. "0.5" .-> item_Database_Link`,
				`op_Find_Errors -. "before" .-> op_Try_Fix`,
			},
			absent: []string{"classDef planned"},
		},
		{
			name: "Plan Overlay",
			overlay: &graph.PlanOverlay{Plan: domain.Plan{Steps: []domain.Step{
				domain.ActionStep{Name: "Find Errors"},
				domain.ActionStep{Name: "Try Fix"},
			}}},
			contains: []string{
				`op_Find_Errors[["Find Errors <br/> step 0"]]`,
				`op_Try_Fix[["Try Fix <br/> step 1"]]`,
				"classDef planned",
				"class op_Find_Errors planned;",
				"class op_Try_Fix planned;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(sampleFlow(), tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.absent {
				if strings.Contains(got, unwanted) {
					t.Errorf("Expected output not to contain %q", unwanted)
				}
			}
		})
	}
}
