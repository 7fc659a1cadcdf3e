// Package codelike prints plans as numbered pseudo-code lines:
//
//	[0] ask(Database Link)
//	[1] list_of_errors = Find Errors(Database Link)
//	[2] assert not errors > 0
//
// The output is accepted back by the reconstructor.
package codelike

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowplan/pkg/domain"
)

// Options control formatting.
type Options struct {
	// ShowOutput prefixes actions with "outputs = ".
	ShowOutput bool
	// LineNumbers prefixes lines with "[i] ".
	LineNumbers bool
	// CollapseMaps hides map steps and substitutes their source in later inputs.
	CollapseMaps bool
	// StartAt is the first line number.
	StartAt int
}

// DefaultOptions shows outputs and line numbers, starting at 0.
func DefaultOptions() Options {
	return Options{ShowOutput: true, LineNumbers: true}
}

// Format renders plan one step per line.
func Format(plan domain.Plan, opts Options) string {
	var lines []string
	maps := make(map[string]string)
	index := opts.StartAt

	for _, step := range plan.All() {
		var b strings.Builder
		if opts.LineNumbers {
			fmt.Fprintf(&b, "[%d] ", index)
		}

		switch s := step.(type) {
		case domain.ActionStep:
			if opts.CollapseMaps && s.Name == domain.ActionMapper && len(s.Inputs) == 2 {
				source := s.Inputs[0]
				if ultimate, ok := maps[source]; ok {
					source = ultimate
				}
				maps[s.Inputs[1]] = source
				continue
			}
			inputs := make([]string, len(s.Inputs))
			for i, in := range s.Inputs {
				if src, ok := maps[in]; ok {
					in = src
				}
				inputs[i] = in
			}
			if opts.ShowOutput && len(s.Outputs) > 0 {
				b.WriteString(strings.Join(s.Outputs, ", "))
				b.WriteString(" = ")
			}
			fmt.Fprintf(&b, "%s(%s)", s.Name, strings.Join(inputs, ", "))
		case domain.ConstraintStep:
			b.WriteString(domain.ActionAssert + " ")
			if !s.TruthValue {
				b.WriteString("not ")
			}
			b.WriteString(s.ID)
		default:
			continue
		}

		index++
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
