package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/flowplan"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Report renders validation results with lipgloss styles.
type Report struct {
	title lipgloss.Style
	pass  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}

// NewReport creates a report styled for w. Colors are dropped when color is false.
func NewReport(w io.Writer, color bool) *Report {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Report{
		title: r.NewStyle().Bold(true),
		pass:  r.NewStyle().Foreground(lipgloss.Color("#22c55e")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		muted: r.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
	}
}

// Render formats one validation result.
func (r *Report) Render(res flowplan.ValidationResult) string {
	var b strings.Builder
	status := r.pass.Render("valid")
	if !res.Valid() {
		status = r.fail.Render("invalid")
	}
	fmt.Fprintf(&b, "%s %s\n", r.title.Render(res.Flow), status)

	for _, c := range res.Checks {
		if c.Passed {
			fmt.Fprintf(&b, "  %s %s\n", r.pass.Render("✓"), c.Name)
			continue
		}
		line := fmt.Sprintf("  %s %s: %s", r.fail.Render("✗"), c.Name, c.Message)
		if c.Entity != "" {
			line += " " + r.muted.Render("("+c.Entity+")")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
