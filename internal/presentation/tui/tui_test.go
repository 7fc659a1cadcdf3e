package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/presentation/codelike"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestReport_Render(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(&buf, false)

	out := r.Render(flowplan.ValidationResult{
		Flow: "errors",
		Checks: []flowplan.Check{
			{Name: "goal_items", Passed: true},
			{Name: "operator_definitions", Message: `unknown parameter "x" for operator "Fix"`, Entity: "Fix"},
		},
	})

	assert.Contains(t, out, "errors invalid")
	assert.Contains(t, out, "✓ goal_items")
	assert.Contains(t, out, `✗ operator_definitions: unknown parameter "x" for operator "Fix" (Fix)`)
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestReport_Valid(t *testing.T) {
	out := NewReport(&bytes.Buffer{}, false).Render(flowplan.ValidationResult{
		Flow:   "ok",
		Checks: []flowplan.Check{{Name: "goal_items", Passed: true}},
	})
	assert.Contains(t, out, "ok valid")
}

func TestPlanMarkdown(t *testing.T) {
	res := &flowplan.PlanResult{
		Flow: "errors",
		Plan: domain.Plan{
			Steps: []domain.Step{
				domain.ActionStep{Name: "Fix Errors", Inputs: []string{"backup_link"}},
			},
			Substitutions: map[string]string{"list_of_errors": "backup_link"},
		},
		Warnings: []domain.ReconstructionWarning{{Line: 3, Text: "???", Reason: "unrecognized step"}},
	}

	md := PlanMarkdown(res, codelike.DefaultOptions())
	assert.Contains(t, md, "# Plan for errors")
	assert.Contains(t, md, "```\n[0] Fix Errors(backup_link)\n```")
	assert.Contains(t, md, "`list_of_errors` takes its value from `backup_link`")
	assert.Contains(t, md, "- line 3: `???` (unrecognized step)")
}

func TestPlanMarkdown_Empty(t *testing.T) {
	md := PlanMarkdown(&flowplan.PlanResult{Flow: "none"}, codelike.DefaultOptions())
	assert.Contains(t, md, "empty plan")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0")
	assert.Contains(t, buf.String(), "0.1.0")
	assert.Contains(t, buf.String(), "classical planning")
}
