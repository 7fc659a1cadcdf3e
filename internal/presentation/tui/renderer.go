package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/flowplan"
	"github.com/aretw0/flowplan/internal/presentation/codelike"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PlanMarkdown describes a plan result as markdown: the code-like plan in a
// fenced block followed by any reconstruction warnings.
func PlanMarkdown(res *flowplan.PlanResult, opts codelike.Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Plan for %s\n\n", res.Flow)
	if res.Plan.Len() == 0 {
		b.WriteString("_The planner returned an empty plan._\n")
	} else {
		b.WriteString("```\n")
		b.WriteString(codelike.Format(res.Plan, opts))
		b.WriteString("\n```\n")
	}
	if len(res.Plan.Substitutions) > 0 {
		b.WriteString("\n## Substitutions\n\n")
		for _, k := range sortedKeys(res.Plan.Substitutions) {
			fmt.Fprintf(&b, "- `%s` takes its value from `%s`\n", k, res.Plan.Substitutions[k])
		}
	}
	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- line %d: `%s` (%s)\n", w.Line, w.Text, w.Reason)
		}
	}
	return b.String()
}

// Markdown renders md through glamour when stdout is a terminal, and returns it unchanged otherwise.
func Markdown(md string) string {
	if !IsTerminal(os.Stdout) {
		return md
	}
	out, err := NewRenderer()(md)
	if err != nil {
		return md
	}
	return out
}
