// Package reconstruct decodes raw planner output back into a flow-level plan.
//
// Two line grammars are accepted: the planner's native form, "(find_errors database_link)",
// and the code-like form produced by the presentation layer,
// "[0] list_of_errors = Find Errors(database_link)" or "[1] assert not has_errors".
// A line that matches neither is reported as a warning and skipped.
package reconstruct

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
)

// Reverter restores original identifiers from planner tokens.
type Reverter interface {
	Revert(token string) string
}

type identity struct{}

func (identity) Revert(token string) string { return token }

// Option configures a reconstruction.
type Option func(*config)

type config struct {
	collapseMaps bool
	logger       *slog.Logger
}

// WithCollapseMaps drops mapper steps and rewrites later inputs to the ultimate
// source of each mapped value. The substitutions are kept on the plan.
func WithCollapseMaps() Option {
	return func(c *config) {
		c.collapseMaps = true
	}
}

// WithLogger sets the logger that receives reconstruction warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Result is a decoded plan plus the lines that could not be decoded.
type Result struct {
	Plan     domain.Plan                    `json:"plan"`
	Warnings []domain.ReconstructionWarning `json:"warnings,omitempty"`
}

var (
	linePrefix    = regexp.MustCompile(`^(?:\[\d+\]|\d+(?:\.\d+)?:)\s*`)
	costSuffix    = regexp.MustCompile(`\s*\[\d+(?:\.\d+)?\]$`)
	outcomeSuffix = regexp.MustCompile(`--outcome-(\d+)$`)
	codeLike      = regexp.MustCompile(`^(?:([^=()]+?)\s*=\s*)?([^=()]+?)\s*\(([^()]*)\)$`)
)

// Reconstruct decodes raw line by line. Identifiers are reverted through reg (nil
// leaves them unchanged) and user operator steps are completed from flow. It never
// fails as a whole.
func Reconstruct(raw string, reg Reverter, flow *domain.FlowDefinition, opts ...Option) Result {
	cfg := &config{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if reg == nil {
		reg = identity{}
	}
	if flow == nil {
		flow = domain.NewFlowDefinition("")
	}

	d := &decoder{reg: reg, flow: flow, cfg: cfg, subs: make(map[string]string)}
	for i, line := range strings.Split(raw, "\n") {
		d.line(i+1, line)
	}
	if cfg.collapseMaps && len(d.subs) > 0 {
		d.result.Plan.Substitutions = d.subs
	}
	return d.result
}

type decoder struct {
	reg    Reverter
	flow   *domain.FlowDefinition
	cfg    *config
	subs   map[string]string
	result Result
}

// parsed is one line in either grammar, before classification.
type parsed struct {
	name    string
	params  []string
	outputs []string
	native  bool
}

func (d *decoder) warn(n int, text, reason string) {
	w := domain.ReconstructionWarning{Line: n, Text: text, Reason: reason}
	d.result.Warnings = append(d.result.Warnings, w)
	d.cfg.logger.Warn("skipping plan line", "line", n, "text", text, "reason", reason)
}

func (d *decoder) line(n int, raw string) {
	text := strings.TrimSpace(raw)
	if text == "" || strings.HasPrefix(text, ";") {
		return
	}
	body := strings.TrimSpace(costSuffix.ReplaceAllString(linePrefix.ReplaceAllString(text, ""), ""))

	p, ok := parse(body)
	if !ok {
		d.warn(n, text, "unrecognized step")
		return
	}

	// Reserved pseudo-actions are recognised by exact name.
	switch strings.ToLower(p.name) {
	case domain.ActionAssert:
		d.assert(n, text, p)
	case domain.ActionSlotFiller, domain.ActionConfirm:
		if len(p.params) != 1 {
			d.warn(n, text, fmt.Sprintf("%s takes one parameter, got %d", p.name, len(p.params)))
			return
		}
		d.emit(domain.ActionStep{Name: strings.ToLower(p.name), Inputs: d.revertAll(p.params)})
	case domain.ActionMapper:
		if len(p.params) != 2 {
			d.warn(n, text, fmt.Sprintf("map takes two parameters, got %d", len(p.params)))
			return
		}
		d.mapping(d.revertAll(p.params))
	default:
		d.operator(p)
	}
}

func parse(body string) (parsed, bool) {
	if strings.HasPrefix(body, "(") && strings.HasSuffix(body, ")") {
		fields := strings.Fields(strings.ToLower(body[1 : len(body)-1]))
		if len(fields) == 0 {
			return parsed{}, false
		}
		return parsed{name: fields[0], params: fields[1:], native: true}, true
	}

	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, domain.ActionAssert+" ") {
		id := strings.TrimSpace(body[len(domain.ActionAssert):])
		value := domain.ActionAssert
		if strings.HasPrefix(strings.ToLower(id), "not ") {
			id = strings.TrimSpace(id[len("not "):])
			value = "not"
		}
		if id == "" {
			return parsed{}, false
		}
		return parsed{name: domain.ActionAssert, params: []string{id, value}}, true
	}

	m := codeLike.FindStringSubmatch(body)
	if m == nil {
		return parsed{}, false
	}
	return parsed{name: strings.TrimSpace(m[2]), params: splitList(m[3]), outputs: splitList(m[1])}, true
}

func splitList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (d *decoder) assert(n int, text string, p parsed) {
	id, value := "", true
	switch {
	case p.native && len(p.params) == 2:
		id = p.params[0]
		switch p.params[1] {
		case "truth-true":
		case "truth-false":
			value = false
		default:
			d.warn(n, text, fmt.Sprintf("unknown truth value %q", p.params[1]))
			return
		}
	case !p.native && len(p.params) == 2:
		id, value = p.params[0], p.params[1] != "not"
	case !p.native && len(p.params) == 1:
		id = p.params[0]
	default:
		d.warn(n, text, "assert takes a constraint and a truth value")
		return
	}
	d.emit(domain.ConstraintStep{ID: d.reg.Revert(id), TruthValue: value})
}

func (d *decoder) mapping(params []string) {
	source, target := params[0], params[1]
	if !d.cfg.collapseMaps {
		d.emit(domain.ActionStep{Name: domain.ActionMapper, Inputs: params})
		return
	}
	if ultimate, ok := d.subs[source]; ok {
		source = ultimate
	}
	d.subs[target] = source
}

func (d *decoder) operator(p parsed) {
	name := p.name
	outcome := -1
	if m := outcomeSuffix.FindStringSubmatch(name); m != nil {
		outcome, _ = strconv.Atoi(m[1])
		name = strings.TrimSuffix(name, m[0])
	}
	name = d.reg.Revert(name)

	step := domain.ActionStep{Name: name, Inputs: d.revertAll(p.params), Outputs: d.revertAll(p.outputs)}
	op, ok := d.flow.Operator(name)
	if !ok {
		op, ok = d.flow.OperatorFold(name)
	}
	if !ok {
		d.cfg.logger.Debug("plan step names an operator outside the flow", "operator", name)
		d.emit(step)
		return
	}

	step.Name = op.Name
	if len(step.Inputs) == 0 {
		step.Inputs = op.InputParameters()
	}
	if len(step.Outputs) == 0 {
		if outcome < 0 && len(op.Outcomes) == 1 {
			outcome = 0
		}
		step.Outputs = op.OutputParameters(outcome)
	}
	d.emit(step)
}

func (d *decoder) emit(step domain.Step) {
	if a, ok := step.(domain.ActionStep); ok && d.cfg.collapseMaps && len(d.subs) > 0 {
		inputs := make([]string, len(a.Inputs))
		for i, in := range a.Inputs {
			if src, ok := d.subs[in]; ok {
				in = src
			}
			inputs[i] = in
		}
		a.Inputs = inputs
		step = a
	}
	d.result.Plan.Steps = append(d.result.Plan.Steps, step)
}

func (d *decoder) revertAll(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = d.reg.Revert(t)
	}
	return out
}
