// Package compiler translates a validated flow into a classical planning problem in PDDL.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/internal/validator"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/aretw0/flowplan/pkg/transform"
)

// Costs of the synthesized pseudo-actions.
const (
	// SlotCost is charged for a slot-fill when slot-filling is penalized.
	SlotCost = 5
	// MappingCost is divided by the mapping probability.
	MappingCost = 2
	// ConfirmCost is charged for a confirmation.
	ConfirmCost = 1
	// AssertCost is charged for a constraint assertion.
	AssertCost = 1
)

// Compiler turns flows into PDDL. It holds no per-call state and is safe for concurrent use.
type Compiler struct {
	logger *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for compilation diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile validates flow and emits the PDDL domain and problem, together with the
// registry of identifier transforms made along the way. The registry is fresh for
// every call and is needed to reconstruct the planner's answer.
func (c *Compiler) Compile(flow *domain.FlowDefinition, set options.Set, lookahead int) (domain.PDDL, *transform.Registry, error) {
	if set.Strategy != "" && set.Strategy != options.StrategyClassical {
		return domain.PDDL{}, nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedStrategy, set.Strategy)
	}
	if lookahead < 0 {
		return domain.PDDL{}, nil, fmt.Errorf("%w: got %d", domain.ErrInvalidLookahead, lookahead)
	}
	if err := set.Validate(); err != nil {
		return domain.PDDL{}, nil, err
	}
	if err := validator.Validate(flow).Err(); err != nil {
		return domain.PDDL{}, nil, err
	}

	run := newCompilation(flow, set, lookahead, c.logger)
	if err := run.tokenize(); err != nil {
		return domain.PDDL{}, nil, fmt.Errorf("failed to normalize identifiers: %w", err)
	}
	run.analyze()

	pddl := domain.PDDL{
		Domain:  run.writeDomain(),
		Problem: run.writeProblem(),
	}

	c.logger.Debug("flow compiled",
		"flow", flow.Name,
		"operators", len(flow.Operators),
		"slot_candidates", len(run.candidates),
		"transforms", run.reg.Len(),
	)
	return pddl, run.reg, nil
}

// compilation is the state of a single Compile call.
type compilation struct {
	flow      *domain.FlowDefinition
	set       options.Set
	lookahead int
	logger    *slog.Logger
	reg       *transform.Registry

	name           string
	items          map[string]string
	types          map[string]string
	operators      map[string]string
	constraints    map[string]string
	constraintDefs []domain.Constraint
	placeholders   []placeholder

	candidates []string
	goalItems  map[string]bool
	produced   map[string]bool
	chains     [][2]string
	tracking   bool
}

type placeholder struct {
	token    string
	typeName string
}

func newCompilation(flow *domain.FlowDefinition, set options.Set, lookahead int, logger *slog.Logger) *compilation {
	return &compilation{
		flow:        flow,
		set:         set,
		lookahead:   lookahead,
		logger:      logger,
		reg:         transform.NewRegistry(),
		items:       make(map[string]string),
		types:       make(map[string]string),
		operators:   make(map[string]string),
		constraints: make(map[string]string),
		goalItems:   make(map[string]bool),
		produced:    make(map[string]bool),
	}
}
