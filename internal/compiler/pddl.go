package compiler

import (
	"fmt"
	"strings"
)

// writer builds indented PDDL text.
type writer struct {
	sb    strings.Builder
	depth int
}

func (w *writer) line(format string, args ...any) {
	w.sb.WriteString(strings.Repeat("  ", w.depth))
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

func (w *writer) open(format string, args ...any) {
	w.line(format, args...)
	w.depth++
}

func (w *writer) close() {
	w.depth--
	w.line(")")
}

func (w *writer) String() string { return w.sb.String() }

func atom(predicate string, args ...string) string {
	if len(args) == 0 {
		return "(" + predicate + ")"
	}
	return "(" + predicate + " " + strings.Join(args, " ") + ")"
}

func not(formula string) string { return "(not " + formula + ")" }

func conj(formulas ...string) string { return junction("and", formulas) }

func disj(formulas ...string) string { return junction("or", formulas) }

func junction(op string, formulas []string) string {
	switch len(formulas) {
	case 0:
		return "(" + op + ")"
	case 1:
		return formulas[0]
	}
	return "(" + op + " " + strings.Join(formulas, " ") + ")"
}

func increaseCost(amount string) string {
	return "(increase (total-cost) " + amount + ")"
}
