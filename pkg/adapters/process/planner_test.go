package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var problem = domain.PDDL{Domain: "(define (domain d))", Problem: "(define (problem p))"}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("process planner tests use sh")
	}
}

func TestPlanner_Contract(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{Command: "sh", Args: []string{"-c", "echo '(find_errors)'"}})
	require.NoError(t, err)
	tests.PlannerContractTest(t, p, problem, "(find_errors)\n")
}

func TestPlanner_ReadsInputFiles(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{Command: "sh", Args: []string{"-c", `cat "$1" "$2"`, "planner", "{domain}", "{problem}"}})
	require.NoError(t, err)

	raw, err := p.Plan(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, problem.Domain+problem.Problem, raw)
}

func TestPlanner_PlanFile(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{
		Command: "sh",
		Args:    []string{"-c", `echo noise; printf '(fix_errors)\n' > "$1"`, "planner", "{plan}"},
	})
	require.NoError(t, err)

	raw, err := p.Plan(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, "(fix_errors)\n", raw)
}

func TestPlanner_MissingPlanFileIsNoPlan(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{Command: "sh", Args: []string{"-c", "true", "planner", "{plan}"}})
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), problem)
	assert.ErrorIs(t, err, domain.ErrNoPlan)
}

func TestPlanner_NonZeroExit(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{Command: "sh", Args: []string{"-c", "echo unsolvable >&2; exit 3"}})
	require.NoError(t, err)

	_, err = p.Plan(context.Background(), problem)
	require.ErrorIs(t, err, domain.ErrPlannerFailure)
	var perr *domain.PlannerError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 3, perr.Status)
	assert.Equal(t, "unsolvable", perr.Detail)
}

func TestPlanner_Environment(t *testing.T) {
	requireShell(t)
	p, err := NewPlanner(PlannerConfig{
		Command:     "sh",
		Args:        []string{"-c", `printf '%s %s' "$PLANNER_MODE" "$(basename "$FLOWPLAN_DOMAIN")"`},
		Environment: map[string]string{"PLANNER_MODE": "optimal"},
	})
	require.NoError(t, err)

	raw, err := p.Plan(context.Background(), problem)
	require.NoError(t, err)
	assert.Equal(t, "optimal domain.pddl", raw)
}

func TestPlanner_Timeout(t *testing.T) {
	requireShell(t)
	if testing.Short() {
		t.Skip("skipping slow test in short mode")
	}
	p, err := NewPlanner(PlannerConfig{Command: "sh", Args: []string{"-c", "sleep 5"}, Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Plan(context.Background(), problem)
	assert.ErrorIs(t, err, domain.ErrPlannerFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestNewPlanner_RequiresCommand(t *testing.T) {
	_, err := NewPlanner(PlannerConfig{})
	assert.Error(t, err)
}

func TestLoadPlanners(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "planners.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
planners:
  - name: fd
    command: fast-downward
    args: ["--plan-file", "{plan}", "{domain}", "{problem}", "--search", "astar(lmcut())"]
    timeout: 30s
  - name: unnamed-is-skipped
  - command: nameless
`), 0o600))

	planners, err := LoadPlanners(yamlPath)
	require.NoError(t, err)
	require.Len(t, planners, 1)
	fd := planners["fd"]
	assert.Equal(t, "fast-downward", fd.Command)
	assert.Equal(t, 30*time.Second, fd.Timeout)
	assert.True(t, fd.usesPlanFile())

	jsonPath := filepath.Join(dir, "planners.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"planners":[{"name":"echo","command":"echo","args":["{problem}"]}]}`), 0o600))
	planners, err = LoadPlanners(jsonPath)
	require.NoError(t, err)
	assert.False(t, planners["echo"].usesPlanFile())

	planners, err = LoadPlanners(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, planners)
}
