package codelike

import (
	"testing"

	"github.com/aretw0/flowplan/internal/reconstruct"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() domain.Plan {
	return domain.Plan{Steps: []domain.Step{
		domain.ActionStep{Name: "ask", Inputs: []string{"Database Link"}},
		domain.ActionStep{Name: "map", Inputs: []string{"backup_link", "db_link"}},
		domain.ActionStep{Name: "Find Errors", Inputs: []string{"db_link"}, Outputs: []string{"list_of_errors"}},
		domain.ConstraintStep{ID: "errors > 0", TruthValue: false},
		domain.ActionStep{Name: "Fix Errors", Inputs: []string{"list_of_errors"}},
	}}
}

func TestFormat_Defaults(t *testing.T) {
	got := Format(samplePlan(), DefaultOptions())
	want := `[0] ask(Database Link)
[1] map(backup_link, db_link)
[2] list_of_errors = Find Errors(db_link)
[3] assert not errors > 0
[4] Fix Errors(list_of_errors)`
	assert.Equal(t, want, got)
}

func TestFormat_Options(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "no outputs, no numbers",
			opts: Options{},
			want: "ask(Database Link)\nmap(backup_link, db_link)\nFind Errors(db_link)\nassert not errors > 0\nFix Errors(list_of_errors)",
		},
		{
			name: "collapse maps renumbers",
			opts: Options{LineNumbers: true, CollapseMaps: true, StartAt: 1},
			want: "[1] ask(Database Link)\n[2] Find Errors(backup_link)\n[3] assert not errors > 0\n[4] Fix Errors(list_of_errors)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(samplePlan(), tt.opts))
		})
	}
}

func TestFormat_Empty(t *testing.T) {
	assert.Empty(t, Format(domain.Plan{}, DefaultOptions()))
}

func TestFormat_ReconstructsBack(t *testing.T) {
	plan := samplePlan()
	text := Format(plan, DefaultOptions())

	res := reconstruct.Reconstruct(text, nil, nil)
	require.Empty(t, res.Warnings)
	if diff := cmp.Diff(plan.Steps, res.Plan.Steps); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
