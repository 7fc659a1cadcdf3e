package flowplan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowplan/internal/compiler"
	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/internal/reconstruct"
	"github.com/aretw0/flowplan/internal/validator"
	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/aretw0/flowplan/pkg/observability"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/aretw0/flowplan/pkg/ports"
	"github.com/aretw0/flowplan/pkg/transform"
)

// ErrNoPlanner is returned by Plan when the service has no planner.
var ErrNoPlanner = errors.New("no planner configured")

// ValidationResult is the outcome of the validation battery.
type ValidationResult = validator.Result

// Check is one entry of a ValidationResult.
type Check = validator.Check

// Service runs the pipeline: validate, compile, plan, reconstruct.
// It is safe for concurrent use when its planner is.
type Service struct {
	compiler *compiler.Compiler
	planner  ports.Planner
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithPlanner sets the planner used by Plan.
func WithPlanner(p ports.Planner) Option {
	return func(s *Service) {
		s.planner = p
	}
}

// WithMetrics records compilations and reconstruction warnings.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets a custom structured logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.compiler = compiler.New(compiler.WithLogger(logging.WithComponent(s.logger, "compiler")))
	return s
}

// Validate runs the validation battery.
func (s *Service) Validate(flow *domain.FlowDefinition) ValidationResult {
	return validator.Validate(flow)
}

// Compilation is a compiled flow with the registry needed to read its plans.
type Compilation struct {
	PDDL     domain.PDDL
	Registry *transform.Registry
}

// Compile validates and compiles flow.
func (s *Service) Compile(flow *domain.FlowDefinition, set options.Set, lookahead int) (*Compilation, error) {
	if flow == nil {
		return nil, fmt.Errorf("%w: no flow given", domain.ErrInvalidFlow)
	}
	start := time.Now()
	pddl, reg, err := s.compiler.Compile(flow, set, lookahead)
	if s.metrics != nil {
		s.metrics.ObserveCompile(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return &Compilation{PDDL: pddl, Registry: reg}, nil
}

// PlanRequest is one planning job. A zero Options compiles under options.Defaults().
type PlanRequest struct {
	Flow         *domain.FlowDefinition
	Options      options.Set
	Lookahead    int
	CollapseMaps bool
}

// PlanResult is the decoded plan with everything that produced it.
type PlanResult struct {
	Flow       string                         `json:"flow"`
	PDDL       domain.PDDL                    `json:"pddl"`
	Raw        string                         `json:"raw"`
	Plan       domain.Plan                    `json:"plan"`
	Warnings   []domain.ReconstructionWarning `json:"warnings,omitempty"`
	Transforms []transform.Transform          `json:"transforms,omitempty"`
}

// Plan compiles the request's flow, calls the planner and reconstructs its answer.
// Planner errors are returned unchanged.
func (s *Service) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if s.planner == nil {
		return nil, ErrNoPlanner
	}
	set := req.Options
	if set == (options.Set{}) {
		set = options.Defaults()
	}
	comp, err := s.Compile(req.Flow, set, req.Lookahead)
	if err != nil {
		return nil, err
	}

	raw, err := s.planner.Plan(ctx, comp.PDDL)
	if err != nil {
		s.logger.Warn("planning failed", "flow", req.Flow.Name, "err", err)
		return nil, err
	}

	res := s.Reconstruct(raw, comp, req.Flow, req.CollapseMaps)
	res.PDDL = comp.PDDL
	return res, nil
}

// Reconstruct decodes a raw plan for a flow compiled as comp. comp may be nil for
// plans in the code-like form, whose identifiers are already the flow's own.
func (s *Service) Reconstruct(raw string, comp *Compilation, flow *domain.FlowDefinition, collapseMaps bool) *PlanResult {
	opts := []reconstruct.Option{reconstruct.WithLogger(logging.WithComponent(s.logger, "reconstruct"))}
	if collapseMaps {
		opts = append(opts, reconstruct.WithCollapseMaps())
	}

	var reg reconstruct.Reverter
	res := &PlanResult{Raw: raw}
	if comp != nil {
		reg = comp.Registry
		res.Transforms = comp.Registry.Transforms()
	}
	if flow != nil {
		res.Flow = flow.Name
	}

	decoded := reconstruct.Reconstruct(raw, reg, flow, opts...)
	res.Plan, res.Warnings = decoded.Plan, decoded.Warnings
	if s.metrics != nil {
		s.metrics.AddWarnings(len(decoded.Warnings))
	}
	s.logger.Debug("plan reconstructed", "flow", res.Flow, "steps", decoded.Plan.Len(), "warnings", len(decoded.Warnings))
	return res
}

// String summarises a result for logs.
func (r *PlanResult) String() string {
	return fmt.Sprintf("plan for %q: %d steps, %d warnings", r.Flow, r.Plan.Len(), len(r.Warnings))
}
