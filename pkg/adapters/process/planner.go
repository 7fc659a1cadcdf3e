package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/flowplan/internal/logging"
	"github.com/aretw0/flowplan/pkg/domain"
)

// waitDelay bounds how long a killed planner may hold its output pipes open.
const waitDelay = time.Second

// Planner implements ports.Planner by running a local planner executable on
// temporary domain and problem files.
type Planner struct {
	config  PlannerConfig
	baseDir string
	logger  *slog.Logger
}

// Option configures the planner.
type Option func(*Planner)

// WithBaseDir sets the working directory for the planner process.
func WithBaseDir(dir string) Option {
	return func(p *Planner) {
		p.baseDir = dir
	}
}

// WithLogger sets the logger used for process diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// NewPlanner creates a process planner for config.
func NewPlanner(config PlannerConfig, opts ...Option) (*Planner, error) {
	if config.Command == "" {
		return nil, errors.New("process planner requires a command")
	}
	p := &Planner{config: config, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan writes the problem to a temporary directory, runs the command and returns
// the raw plan. A non-zero exit is a PlannerError carrying the exit code and stderr.
func (p *Planner) Plan(ctx context.Context, problem domain.PDDL) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "flowplan-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create work dir: %v", domain.ErrPlannerFailure, err)
	}
	defer os.RemoveAll(dir)

	paths := map[string]string{
		PlaceholderDomain:  filepath.Join(dir, "domain.pddl"),
		PlaceholderProblem: filepath.Join(dir, "problem.pddl"),
		PlaceholderPlan:    filepath.Join(dir, "plan.txt"),
	}
	if err := os.WriteFile(paths[PlaceholderDomain], []byte(problem.Domain), 0o600); err != nil {
		return "", fmt.Errorf("%w: failed to write domain: %v", domain.ErrPlannerFailure, err)
	}
	if err := os.WriteFile(paths[PlaceholderProblem], []byte(problem.Problem), 0o600); err != nil {
		return "", fmt.Errorf("%w: failed to write problem: %v", domain.ErrPlannerFailure, err)
	}

	args := make([]string, len(p.config.Args))
	for i, a := range p.config.Args {
		for placeholder, path := range paths {
			a = strings.ReplaceAll(a, placeholder, path)
		}
		args[i] = a
	}

	cmd := exec.CommandContext(ctx, p.config.Command, args...)
	cmd.Dir = p.baseDir
	cmd.WaitDelay = waitDelay
	cmd.Env = cmd.Environ()
	for k, v := range p.config.Environment {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env,
		"FLOWPLAN_DOMAIN="+paths[PlaceholderDomain],
		"FLOWPLAN_PROBLEM="+paths[PlaceholderProblem],
		"FLOWPLAN_PLAN="+paths[PlaceholderPlan],
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("starting planner process", "command", p.config.Command, "args", args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrPlannerFailure, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &domain.PlannerError{Status: exitErr.ExitCode(), Detail: strings.TrimSpace(stderr.String())}
		}
		return "", &domain.PlannerError{Detail: err.Error()}
	}

	if !p.config.usesPlanFile() {
		return stdout.String(), nil
	}
	data, err := os.ReadFile(paths[PlaceholderPlan])
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: planner wrote no plan file", domain.ErrNoPlan)
		}
		return "", fmt.Errorf("%w: failed to read plan: %v", domain.ErrPlannerFailure, err)
	}
	return string(data), nil
}
